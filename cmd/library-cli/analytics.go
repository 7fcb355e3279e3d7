package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"library-client/internal/analytics"
	"library-client/internal/domain"
)

var (
	analyticsYear  int
	analyticsLimit int
	analyticsBy    string
)

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsMonthlyCmd, analyticsTopCmd)

	analyticsMonthlyCmd.Flags().IntVar(&analyticsYear, "year", time.Now().Year(), "calendar year")
	analyticsTopCmd.Flags().IntVar(&analyticsLimit, "limit", analytics.DefaultLimit, "number of books")
	analyticsTopCmd.Flags().StringVar(&analyticsBy, "by", "borrowings", "borrowings or ratings")
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Borrowing and rating statistics",
}

var analyticsMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Books borrowed per month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := lib.analytics.BorrowedPerMonth(cmd.Context(), analyticsYear)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(lib.out, 0, 0, 2, ' ', 0)
		for i, label := range m.Labels {
			if i < len(m.Values) {
				fmt.Fprintf(w, "%s\t%d\n", label, m.Values[i])
			}
		}
		w.Flush()
		lib.printf("Total %d, peak %s (%d)\n", m.Total, m.PeakMonth, m.PeakCount)
		if m.Note != "" {
			lib.printf("%s\n", m.Note)
		}
		return nil
	},
}

var analyticsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Top books by borrowings or average rating",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			r   *domain.BookRanking
			err error
		)
		switch analyticsBy {
		case "borrowings":
			r, err = lib.analytics.TopByBorrowings(cmd.Context(), analyticsLimit)
		case "ratings":
			r, err = lib.analytics.TopByRatings(cmd.Context(), analyticsLimit)
		default:
			return fmt.Errorf("unknown ranking %q", analyticsBy)
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(lib.out, 0, 0, 2, ' ', 0)
		for i, b := range r.Books {
			value := fmt.Sprintf("%d borrowed", b.BorrowCount)
			if analyticsBy == "ratings" {
				value = fmt.Sprintf("%.1f (%d reviews)", b.AvgRating, b.ReviewCount)
			}
			fmt.Fprintf(w, "%d.\t%s\t%s\t%s\n", i+1, b.Title, b.Author, value)
		}
		return w.Flush()
	},
}

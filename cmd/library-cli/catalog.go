package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"library-client/internal/catalog"
	"library-client/internal/domain"
)

var (
	booksCategory int64
	booksSearch   string
	booksPage     int
)

func init() {
	rootCmd.AddCommand(homeCmd, booksCmd, bookCmd)

	booksCmd.Flags().Int64Var(&booksCategory, "category", 0, "only books in this category id")
	booksCmd.Flags().StringVar(&booksSearch, "search", "", "match title or author, ignoring case")
	booksCmd.Flags().IntVar(&booksPage, "page", 1, "page number")
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Library totals with the top rated and most popular books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stats, err := lib.client.HomeStats(ctx)
		if err != nil {
			return err
		}
		topRated, err := lib.client.TopRated(ctx)
		if err != nil {
			return err
		}
		popular, err := lib.client.MostPopular(ctx)
		if err != nil {
			return err
		}

		lib.printf("%d books in %d categories, %d borrowings, average rating %.1f\n",
			stats.TotalBooks, stats.TotalCategories, stats.TotalBorrowings, stats.AverageRating)
		lib.printf("\nTop rated\n")
		for _, b := range topRated {
			lib.printf("  %-40s %.1f\n", b.Title, b.AverageRating)
		}
		lib.printf("\nMost popular\n")
		for _, b := range popular {
			lib.printf("  %-40s %d borrowed\n", b.Title, b.BorrowCount)
		}
		return nil
	},
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Browse the catalog",
	Long: `Browse the catalog one page at a time.

Examples:
  lib books
  lib books --search tolkien
  lib books --category 2 --page 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := lib.cache.Load(cmd.Context()); err != nil {
			return err
		}

		q := catalog.Query{CategoryID: booksCategory, Search: booksSearch}
		pager := catalog.NewPager(lib.cfg.PageSize)
		page := pager.Browse(lib.cache, q)
		if booksPage > 1 {
			pager.Go(booksPage)
			page = pager.Browse(lib.cache, q)
		}

		if page.Total == 0 {
			lib.printf("No books match.\n")
			return nil
		}

		w := tabwriter.NewWriter(lib.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCATEGORY\tAVAILABLE")
		for _, b := range page.Books {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\n",
				b.ID, b.Title, b.Author, lib.cache.CategoryName(b.CategoryID), b.AvailableCopies, b.TotalCopies)
		}
		w.Flush()
		lib.printf("Page %d of %d (%d books)\n", page.Number, page.Pages, page.Total)
		return nil
	},
}

var bookCmd = &cobra.Command{
	Use:   "book <id>",
	Short: "Show one book with its reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if _, err := lib.cache.Load(ctx); err != nil {
			return err
		}
		b, ok := lib.cache.Book(id)
		if !ok {
			return fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
		}
		if lib.store.Current().Authenticated() {
			if _, err := lib.coord.LoadBorrowings(ctx); err != nil {
				return err
			}
		}
		reviews, err := lib.coord.LoadReviews(ctx, id)
		if err != nil {
			return err
		}

		lib.printf("%s\nby %s\n", b.Title, b.Author)
		if name := lib.cache.CategoryName(b.CategoryID); name != "" {
			lib.printf("Category: %s\n", name)
		}
		if b.ISBN != "" {
			lib.printf("ISBN: %s\n", b.ISBN)
		}
		lib.printf("Available: %d of %d\n", b.AvailableCopies, b.TotalCopies)

		state := lib.coord.BookState(id)
		switch {
		case state.ActiveRecord != nil:
			lib.printf("You have this book (record %d), due %s.\n",
				state.ActiveRecord.ID, state.ActiveRecord.DueDate.Format(dateLayout))
		case state.CanBorrow:
			lib.printf("You can borrow this book: lib borrow %d\n", id)
		}

		lib.printf("\nReviews (%d)\n", len(reviews))
		for _, r := range reviews {
			mine := ""
			if state.MyReview != nil && state.MyReview.ID == r.ID {
				mine = " (yours)"
			}
			lib.printf("  %s %s%s\n", stars(r.Rating), r.UserName, mine)
			if r.Content != "" {
				lib.printf("    %s\n", r.Content)
			}
		}
		return nil
	},
}

func stars(rating int) string {
	s := make([]rune, 0, domain.MaxRating)
	for i := domain.MinRating; i <= domain.MaxRating; i++ {
		if i <= rating {
			s = append(s, '*')
		} else {
			s = append(s, '.')
		}
	}
	return string(s)
}

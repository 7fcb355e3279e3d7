package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"library-client/internal/domain"
)

var (
	adminFilter    string
	adminBookTitle string
	adminRating    int
	bookInput      domain.BookInput
)

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(
		adminDashboardCmd,
		adminBooksCmd,
		adminBookAddCmd,
		adminBookUpdateCmd,
		adminBookDeleteCmd,
		adminCategoriesCmd,
		adminCategoryAddCmd,
		adminCategoryRenameCmd,
		adminCategoryDeleteCmd,
		adminBorrowingsCmd,
		adminRemindCmd,
		adminFineCmd,
		adminForceReturnCmd,
		adminReviewsCmd,
		adminReviewDeleteCmd,
	)

	adminBorrowingsCmd.Flags().StringVar(&adminFilter, "filter", "", "returned, unreturned or overdue")
	adminReviewsCmd.Flags().StringVar(&adminBookTitle, "book", "", "only reviews of books whose title contains this")
	adminReviewsCmd.Flags().IntVar(&adminRating, "rating", 0, "only reviews with this rating")

	for _, c := range []*cobra.Command{adminBookAddCmd, adminBookUpdateCmd} {
		c.Flags().StringVar(&bookInput.Title, "title", "", "book title")
		c.Flags().StringVar(&bookInput.Author, "author", "", "author")
		c.Flags().Int64Var(&bookInput.CategoryID, "category", 0, "category id")
		c.Flags().IntVar(&bookInput.TotalCopies, "total", 1, "total copies")
		c.Flags().IntVar(&bookInput.AvailableCopies, "available", 1, "copies on the shelf")
		c.Flags().StringVar(&bookInput.ISBN, "isbn", "", "ISBN")
	}
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Library administration (admin accounts only)",
}

var adminDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show library counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := lib.admin.Dashboard(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(lib.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Users\t%d\n", d.UserCount)
		fmt.Fprintf(w, "Books\t%d\n", d.BookCount)
		fmt.Fprintf(w, "Borrowings\t%d\n", d.BorrowCount)
		fmt.Fprintf(w, "Reviews\t%d\n", d.ReviewCount)
		fmt.Fprintf(w, "Categories\t%d\n", d.CategoryCount)
		return w.Flush()
	},
}

var adminBooksCmd = &cobra.Command{
	Use:   "books",
	Short: "List books with their active loan counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		books, err := lib.admin.Books(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(lib.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tTOTAL\tAVAILABLE\tBORROWED")
		for _, b := range books {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\n",
				b.ID, b.Title, b.Author, b.TotalCopies, b.AvailableCopies, b.BorrowedCount)
		}
		return w.Flush()
	},
}

var adminBookAddCmd = &cobra.Command{
	Use:   "book-add",
	Short: "Add a book to the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := lib.admin.CreateBook(cmd.Context(), bookInput)
		if err != nil {
			return err
		}
		lib.printf("Book %d added.\n", b.ID)
		return nil
	},
}

var adminBookUpdateCmd = &cobra.Command{
	Use:   "book-update <book-id>",
	Short: "Replace a book's details",
	Long: `Replace a book's details. Available plus borrowed copies may not
exceed the total; the current loan count comes from "lib admin books".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		// loads the active loan counts used to validate copies
		if _, err := lib.admin.Books(ctx); err != nil {
			return err
		}
		if _, err := lib.admin.UpdateBook(ctx, id, bookInput); err != nil {
			return err
		}
		lib.printf("Book %d updated.\n", id)
		return nil
	},
}

var adminBookDeleteCmd = &cobra.Command{
	Use:   "book-delete <book-id>",
	Short: "Remove a book from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := lib.admin.DeleteBook(cmd.Context(), id); err != nil {
			return err
		}
		lib.printf("Book %d deleted.\n", id)
		return nil
	},
}

var adminCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, err := lib.admin.Categories(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range cats {
			lib.printf("%d\t%s\n", c.ID, c.Name)
		}
		return nil
	},
}

var adminCategoryAddCmd = &cobra.Command{
	Use:   "category-add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := lib.admin.CreateCategory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		lib.printf("Category %d added.\n", c.ID)
		return nil
	},
}

var adminCategoryRenameCmd = &cobra.Command{
	Use:   "category-rename <category-id> <name>",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if _, err := lib.admin.RenameCategory(cmd.Context(), id, args[1]); err != nil {
			return err
		}
		lib.printf("Category %d renamed.\n", id)
		return nil
	},
}

var adminCategoryDeleteCmd = &cobra.Command{
	Use:   "category-delete <category-id>",
	Short: "Delete an empty category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := lib.admin.DeleteCategory(cmd.Context(), id); err != nil {
			return err
		}
		lib.printf("Category %d deleted.\n", id)
		return nil
	},
}

var adminBorrowingsCmd = &cobra.Command{
	Use:   "borrowings",
	Short: "List every loan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := domain.BorrowFilter(adminFilter)
		switch filter {
		case domain.FilterAll, domain.FilterReturned, domain.FilterUnreturned, domain.FilterOverdue:
		default:
			return fmt.Errorf("unknown filter %q", adminFilter)
		}

		records, err := lib.admin.Borrowings(cmd.Context(), filter)
		if err != nil {
			return err
		}
		now := time.Now()
		w := tabwriter.NewWriter(lib.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSER\tBOOK\tDUE\tSTATUS\tFINE")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Username, r.BookTitle, r.DueDate.Format(dateLayout), r.Status(now), r.Fine)
		}
		return w.Flush()
	},
}

var adminRemindCmd = &cobra.Command{
	Use:   "remind <record-id>",
	Short: "Send a return reminder to the borrower",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := lib.admin.SendReminder(cmd.Context(), id); err != nil {
			return err
		}
		lib.printf("Reminder sent.\n")
		return nil
	},
}

var adminFineCmd = &cobra.Command{
	Use:   "fine <record-id> <amount>",
	Short: "Set the fine on a loan",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		if err := lib.admin.SetFine(cmd.Context(), id, domain.Amount(amount)); err != nil {
			return err
		}
		lib.printf("Fine set to Rs.%s.\n", domain.Amount(amount))
		return nil
	},
}

var adminForceReturnCmd = &cobra.Command{
	Use:   "force-return <record-id>",
	Short: "Mark a loan as returned",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := lib.admin.ForceReturn(cmd.Context(), id); err != nil {
			return err
		}
		lib.printf("Loan %d marked returned.\n", id)
		return nil
	},
}

var adminReviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "List reviews across the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reviews, err := lib.admin.Reviews(cmd.Context(), domain.ReviewFilter{BookTitle: adminBookTitle, Rating: adminRating})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(lib.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBOOK\tUSER\tRATING\tREVIEW")
		for _, r := range reviews {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.BookTitle, r.UserName, r.Rating, r.Content)
		}
		return w.Flush()
	},
}

var adminReviewDeleteCmd = &cobra.Command{
	Use:   "review-delete <review-id>",
	Short: "Delete any review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := lib.admin.DeleteReview(cmd.Context(), id); err != nil {
			return err
		}
		lib.printf("Review %d deleted.\n", id)
		return nil
	},
}

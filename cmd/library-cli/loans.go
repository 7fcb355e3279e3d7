package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

const dateLayout = "Jan 02, 2006"

var notificationsMarkRead bool

func init() {
	rootCmd.AddCommand(borrowCmd, returnCmd, borrowingsCmd, notificationsCmd)

	notificationsCmd.Flags().BoolVar(&notificationsMarkRead, "mark-read", false, "mark every notification as read")
}

var borrowCmd = &cobra.Command{
	Use:   "borrow <book-id>",
	Short: "Borrow a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if _, err := lib.cache.Load(cmd.Context()); err != nil {
			return err
		}
		rec, err := lib.coord.Borrow(cmd.Context(), id)
		if err != nil {
			return err
		}
		lib.printf("Borrowed %q. Please return it by %s.\n", rec.BookTitle, rec.DueDate.Format(dateLayout))
		return nil
	},
}

var returnCmd = &cobra.Command{
	Use:   "return <record-id>",
	Short: "Return a borrowed book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if _, err := lib.coord.LoadBorrowings(ctx); err != nil {
			return err
		}
		receipt, err := lib.coord.Return(ctx, id)
		if err != nil {
			return err
		}
		msg := receipt.Message
		if msg == "" {
			msg = "Book returned."
		}
		lib.printf("%s\n", msg)
		if receipt.Fine > 0 {
			lib.printf("Fine: Rs.%s\n", receipt.Fine)
		}
		return nil
	},
}

var borrowingsCmd = &cobra.Command{
	Use:   "borrowings",
	Short: "List your loans",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := lib.coord.LoadBorrowings(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			lib.printf("You have not borrowed any books.\n")
			return nil
		}

		now := time.Now()
		w := tabwriter.NewWriter(lib.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBOOK\tBORROWED\tDUE\tSTATUS\tFINE")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.BookTitle, r.BorrowDate.Format(dateLayout), r.DueDate.Format(dateLayout), r.Status(now), r.Fine)
		}
		return w.Flush()
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show reminders and fine notices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		notes, err := lib.coord.Notifications(ctx)
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			lib.printf("No notifications.\n")
		}
		for _, n := range notes {
			marker := " "
			if !n.IsRead {
				marker = "*"
			}
			lib.printf("%s %s  %s\n", marker, n.CreatedAt.Format(dateLayout), n.Message)
		}
		if notificationsMarkRead && len(notes) > 0 {
			return lib.coord.MarkAllNotificationsRead(ctx)
		}
		return nil
	},
}

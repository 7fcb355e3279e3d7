package main

import (
	"github.com/spf13/cobra"
)

var (
	reviewRating  int
	reviewContent string
)

func init() {
	rootCmd.AddCommand(reviewsCmd, reviewCmd, unreviewCmd)

	reviewCmd.Flags().IntVar(&reviewRating, "rating", 0, "rating from 1 to 5")
	reviewCmd.Flags().StringVar(&reviewContent, "content", "", "review text")
	_ = reviewCmd.MarkFlagRequired("rating")
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews <book-id>",
	Short: "List the reviews of a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		reviews, err := lib.coord.LoadReviews(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(reviews) == 0 {
			lib.printf("No reviews yet.\n")
		}
		for _, r := range reviews {
			lib.printf("%d  %s  %s  %s\n", r.ID, stars(r.Rating), r.UserName, r.Content)
		}
		return nil
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review <book-id>",
	Short: "Review a book, or update your review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if _, err := lib.coord.LoadReviews(ctx, id); err != nil {
			return err
		}
		_, updated, err := lib.coord.SubmitReview(ctx, id, reviewRating, reviewContent)
		if err != nil {
			return err
		}
		if updated {
			lib.printf("Your review was updated.\n")
		} else {
			lib.printf("Thanks for your review.\n")
		}
		return nil
	},
}

var unreviewCmd = &cobra.Command{
	Use:   "unreview <review-id>",
	Short: "Delete one of your reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := lib.coord.DeleteReview(cmd.Context(), id); err != nil {
			return err
		}
		lib.printf("Review deleted.\n")
		return nil
	},
}

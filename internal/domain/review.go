package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating of one book. At most one exists per (UserID, BookID).
type Review struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book"`
	UserID    int64     `json:"user,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	BookTitle string    `json:"book_title,omitempty"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewInput is the body of a review create or update.
type ReviewInput struct {
	BookID  int64  `json:"book"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

// ValidRating reports whether rating is within [MinRating, MaxRating].
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// ReviewFilter narrows the admin review listing.
type ReviewFilter struct {
	BookTitle string
	Rating    int
}

package domain

// Category groups books.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Book is a catalog entry with its availability counts.
// Invariant: 0 <= AvailableCopies <= TotalCopies.
type Book struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	CategoryID      int64  `json:"category"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
	ISBN            string `json:"isbn,omitempty"`
	CoverImage      string `json:"cover_image,omitempty"`
	// BorrowedCount is only populated by the admin endpoints.
	BorrowedCount int `json:"borrowed_count,omitempty"`
}

// Available reports whether at least one copy can be borrowed.
func (b *Book) Available() bool {
	return b.AvailableCopies > 0
}

// BookInput is the writable subset of a book used by admin create/update.
type BookInput struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	CategoryID      int64  `json:"category"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
	ISBN            string `json:"isbn,omitempty"`
}

// ValidateCopies checks copy counts against the number of active loans.
func (in BookInput) ValidateCopies(borrowed int) error {
	if in.TotalCopies < 0 || in.AvailableCopies < 0 {
		return ErrInvalidCopies
	}
	if in.AvailableCopies+borrowed > in.TotalCopies {
		return ErrInvalidCopies
	}
	return nil
}

// RankedBook is a book summary returned by the home page ranking endpoints.
type RankedBook struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Category        string  `json:"category"`
	CoverImage      string  `json:"cover_image,omitempty"`
	AverageRating   float64 `json:"average_rating"`
	ReviewCount     int     `json:"review_count,omitempty"`
	BorrowCount     int     `json:"borrow_count,omitempty"`
	AvailableCopies int     `json:"available_copies"`
}

// HomeStats are the catalog-wide counters shown on the home page.
type HomeStats struct {
	TotalBooks      int     `json:"total_books"`
	TotalCategories int     `json:"total_categories"`
	TotalBorrowings int     `json:"total_borrowings"`
	AverageRating   float64 `json:"average_rating"`
}

package domain

import "time"

// Notification is a message addressed to a user, e.g. a return reminder or fine notice.
type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

// Dashboard holds the admin console counters.
type Dashboard struct {
	UserCount     int `json:"user_count"`
	BookCount     int `json:"book_count"`
	BorrowCount   int `json:"borrow_count"`
	ReviewCount   int `json:"review_count"`
	CategoryCount int `json:"category_count"`
}

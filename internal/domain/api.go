package domain

import "context"

// AuthAPI exchanges credentials for sessions.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (*Session, error)
	Signup(ctx context.Context, signup Signup) (*Session, error)
	Profile(ctx context.Context) (*Profile, error)
}

// CatalogAPI reads books and categories.
type CatalogAPI interface {
	ListBooks(ctx context.Context) ([]*Book, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	ListCategories(ctx context.Context) ([]*Category, error)
}

// BorrowAPI issues loans and returns.
type BorrowAPI interface {
	Borrow(ctx context.Context, bookID int64) (*BorrowReceipt, error)
	Return(ctx context.Context, recordID int64) (*ReturnReceipt, error)
	MyBorrowings(ctx context.Context) ([]*BorrowRecord, error)
}

// ReviewAPI reads and writes reviews.
type ReviewAPI interface {
	ListReviews(ctx context.Context, bookID int64) ([]*Review, error)
	CreateReview(ctx context.Context, in ReviewInput) (*Review, error)
	UpdateReview(ctx context.Context, id int64, in ReviewInput) (*Review, error)
	DeleteReview(ctx context.Context, id int64) error
}

// NotificationAPI reads the user's notifications.
type NotificationAPI interface {
	ListNotifications(ctx context.Context) ([]*Notification, error)
	MarkAllNotificationsRead(ctx context.Context) error
}

// AdminAPI is the admin console surface. Every call requires an admin session.
type AdminAPI interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	AdminListBooks(ctx context.Context) ([]*Book, error)
	AdminCreateBook(ctx context.Context, in BookInput) (*Book, error)
	AdminUpdateBook(ctx context.Context, id int64, in BookInput) (*Book, error)
	AdminDeleteBook(ctx context.Context, id int64) error
	AdminListCategories(ctx context.Context) ([]*Category, error)
	AdminCreateCategory(ctx context.Context, name string) (*Category, error)
	AdminUpdateCategory(ctx context.Context, id int64, name string) (*Category, error)
	AdminDeleteCategory(ctx context.Context, id int64) error
	AdminListBorrowings(ctx context.Context, filter BorrowFilter) ([]*BorrowRecord, error)
	AdminBorrowAction(ctx context.Context, action BorrowAction, recordID int64, fine Amount) error
	AdminListReviews(ctx context.Context, filter ReviewFilter) ([]*Review, error)
	AdminDeleteReview(ctx context.Context, id int64) error
}

// LibraryAPI is the complete library REST surface.
type LibraryAPI interface {
	AuthAPI
	CatalogAPI
	BorrowAPI
	ReviewAPI
	NotificationAPI
	AdminAPI
}

// TokenSource supplies the bearer credential for outgoing requests.
// An empty token means the request is sent anonymously.
type TokenSource interface {
	Token() string
}

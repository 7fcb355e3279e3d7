package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"library-client/internal/devapi"
	"library-client/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

func nextID() int64 {
	return idCounter.Add(1)
}

// NewTestLibrary creates an in-memory library with cheap password hashing.
func NewTestLibrary(t *testing.T, opts ...devapi.Option) *devapi.Library {
	t.Helper()
	opts = append([]devapi.Option{devapi.WithBcryptCost(bcrypt.MinCost)}, opts...)
	return devapi.NewLibrary(opts...)
}

// NewSeededLibrary is NewTestLibrary filled with devapi.Seed data.
func NewSeededLibrary(t *testing.T, opts ...devapi.Option) *devapi.Library {
	t.Helper()
	lib := NewTestLibrary(t, opts...)
	if err := devapi.Seed(lib); err != nil {
		t.Fatalf("failed to seed library: %v", err)
	}
	return lib
}

// LoginToken signs username in on lib and returns its token.
func LoginToken(t *testing.T, lib *devapi.Library, username, password string) string {
	t.Helper()
	token, _, err := lib.Login(username, password)
	if err != nil {
		t.Fatalf("failed to log in %s: %v", username, err)
	}
	return token
}

// NewTestBook creates a book with sensible defaults
// Pass options to override specific fields
func NewTestBook(opts ...func(*domain.Book)) *domain.Book {
	id := nextID()
	b := &domain.Book{
		ID:              id,
		Title:           fmt.Sprintf("Test Book %d", id),
		Author:          "Test Author",
		TotalCopies:     2,
		AvailableCopies: 2,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func WithBookID(id int64) func(*domain.Book) {
	return func(b *domain.Book) { b.ID = id }
}

func WithTitle(title string) func(*domain.Book) {
	return func(b *domain.Book) { b.Title = title }
}

func WithAuthor(author string) func(*domain.Book) {
	return func(b *domain.Book) { b.Author = author }
}

func WithCategory(id int64) func(*domain.Book) {
	return func(b *domain.Book) { b.CategoryID = id }
}

// WithCopies sets total and available copies
func WithCopies(total, available int) func(*domain.Book) {
	return func(b *domain.Book) {
		b.TotalCopies = total
		b.AvailableCopies = available
	}
}

// NewTestSession creates an authenticated, non-admin session
func NewTestSession(opts ...func(*domain.Session)) *domain.Session {
	id := nextID()
	s := &domain.Session{
		UserID:      id,
		Username:    fmt.Sprintf("user%d", id),
		DisplayName: fmt.Sprintf("Test User %d", id),
		Token:       fmt.Sprintf("token-%d", id),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithSessionUserID(id int64) func(*domain.Session) {
	return func(s *domain.Session) { s.UserID = id }
}

func WithUsername(username string) func(*domain.Session) {
	return func(s *domain.Session) { s.Username = username }
}

func WithToken(token string) func(*domain.Session) {
	return func(s *domain.Session) { s.Token = token }
}

func WithAdmin() func(*domain.Session) {
	return func(s *domain.Session) { s.IsAdmin = true }
}

// NewTestRecord creates an active loan borrowed now and due after the loan period
func NewTestRecord(opts ...func(*domain.BorrowRecord)) *domain.BorrowRecord {
	now := time.Now()
	r := &domain.BorrowRecord{
		ID:         nextID(),
		BookID:     nextID(),
		UserID:     nextID(),
		BorrowDate: now,
		DueDate:    now.Add(domain.LoanPeriod),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithRecordBook(bookID int64) func(*domain.BorrowRecord) {
	return func(r *domain.BorrowRecord) { r.BookID = bookID }
}

func WithRecordUser(userID int64) func(*domain.BorrowRecord) {
	return func(r *domain.BorrowRecord) { r.UserID = userID }
}

func WithDueDate(t time.Time) func(*domain.BorrowRecord) {
	return func(r *domain.BorrowRecord) { r.DueDate = t }
}

// WithReturned marks the record returned at t
func WithReturned(t time.Time) func(*domain.BorrowRecord) {
	return func(r *domain.BorrowRecord) {
		r.ReturnDate = &t
		r.IsReturned = true
	}
}

// NewTestReview creates a 4-star review
func NewTestReview(opts ...func(*domain.Review)) *domain.Review {
	id := nextID()
	r := &domain.Review{
		ID:        id,
		BookID:    nextID(),
		UserID:    nextID(),
		Rating:    4,
		Content:   fmt.Sprintf("Review %d", id),
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithReviewBook(bookID int64) func(*domain.Review) {
	return func(r *domain.Review) { r.BookID = bookID }
}

// WithReviewer sets both the user id and the user name of the review
func WithReviewer(userID int64, name string) func(*domain.Review) {
	return func(r *domain.Review) {
		r.UserID = userID
		r.UserName = name
	}
}

func WithRating(rating int) func(*domain.Review) {
	return func(r *domain.Review) { r.Rating = rating }
}

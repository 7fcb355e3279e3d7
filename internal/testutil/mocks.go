// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the library client.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"library-client/internal/devapi"
	"library-client/internal/domain"
)

var _ domain.LibraryAPI = (*MockLibraryAPI)(nil)

// MockLibraryAPI implements domain.LibraryAPI on top of an in-memory
// devapi.Library, acting as whoever owns the token of the attached source.
// Set a Func field to override one call; every call is counted either way.
type MockLibraryAPI struct {
	Lib *devapi.Library

	mu     sync.Mutex
	tokens domain.TokenSource
	calls  map[string]int

	// Function overrides - set these to customize behavior
	LoginFunc           func(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	SignupFunc          func(ctx context.Context, signup domain.Signup) (*domain.Session, error)
	ProfileFunc         func(ctx context.Context) (*domain.Profile, error)
	ListBooksFunc       func(ctx context.Context) ([]*domain.Book, error)
	ListCategoriesFunc  func(ctx context.Context) ([]*domain.Category, error)
	BorrowFunc          func(ctx context.Context, bookID int64) (*domain.BorrowReceipt, error)
	ReturnFunc          func(ctx context.Context, recordID int64) (*domain.ReturnReceipt, error)
	MyBorrowingsFunc    func(ctx context.Context) ([]*domain.BorrowRecord, error)
	ListReviewsFunc     func(ctx context.Context, bookID int64) ([]*domain.Review, error)
	CreateReviewFunc    func(ctx context.Context, in domain.ReviewInput) (*domain.Review, error)
	UpdateReviewFunc    func(ctx context.Context, id int64, in domain.ReviewInput) (*domain.Review, error)
	AdminUpdateBookFunc func(ctx context.Context, id int64, in domain.BookInput) (*domain.Book, error)
}

// NewMockLibraryAPI creates a mock backed by lib
func NewMockLibraryAPI(lib *devapi.Library) *MockLibraryAPI {
	return &MockLibraryAPI{
		Lib:   lib,
		calls: make(map[string]int),
	}
}

// SetTokenSource attaches the credential source, normally a session store
func (m *MockLibraryAPI) SetTokenSource(ts domain.TokenSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = ts
}

func (m *MockLibraryAPI) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

// Calls returns how many times the named method was invoked
func (m *MockLibraryAPI) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// TotalCalls returns the number of calls across all methods
func (m *MockLibraryAPI) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// CallNames lists the methods invoked so far, sorted
func (m *MockLibraryAPI) CallNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.calls))
	for name := range m.calls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears the call counters
func (m *MockLibraryAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

func (m *MockLibraryAPI) user() (*devapi.User, error) {
	m.mu.Lock()
	ts := m.tokens
	m.mu.Unlock()

	if ts == nil || ts.Token() == "" {
		return nil, domain.ErrUnauthenticated
	}
	return m.Lib.Authenticate(ts.Token())
}

func (m *MockLibraryAPI) admin() (*devapi.User, error) {
	u, err := m.user()
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

// apiError reports development API errors the way the HTTP client classifies them.
func apiError(err error) error {
	switch {
	case errors.Is(err, devapi.ErrAlreadyReturned),
		errors.Is(err, devapi.ErrUsernameTaken),
		errors.Is(err, devapi.ErrInvalidAction):
		return fmt.Errorf("%w: %v", domain.ErrUnknown, err)
	}
	return err
}

func sessionFor(token string, u *devapi.User) *domain.Session {
	return &domain.Session{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: u.FullName,
		IsAdmin:     u.IsAdmin,
		Token:       token,
	}
}

func (m *MockLibraryAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	m.record("Login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	token, u, err := m.Lib.Login(creds.Username, creds.Password)
	if err != nil {
		return nil, apiError(err)
	}
	return sessionFor(token, u), nil
}

func (m *MockLibraryAPI) Signup(ctx context.Context, signup domain.Signup) (*domain.Session, error) {
	m.record("Signup")
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, signup)
	}
	token, u, err := m.Lib.Signup(signup)
	if err != nil {
		return nil, apiError(err)
	}
	s := sessionFor(token, u)
	s.DisplayName = signup.FullName
	return s, nil
}

func (m *MockLibraryAPI) Profile(ctx context.Context) (*domain.Profile, error) {
	m.record("Profile")
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx)
	}
	u, err := m.user()
	if err != nil {
		return nil, err
	}
	return u.Profile(), nil
}

func (m *MockLibraryAPI) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	m.record("ListBooks")
	if m.ListBooksFunc != nil {
		return m.ListBooksFunc(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Lib.Books(), nil
}

func (m *MockLibraryAPI) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	m.record("GetBook")
	return m.Lib.Book(id)
}

func (m *MockLibraryAPI) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	m.record("ListCategories")
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Lib.Categories(), nil
}

func (m *MockLibraryAPI) Borrow(ctx context.Context, bookID int64) (*domain.BorrowReceipt, error) {
	m.record("Borrow")
	if m.BorrowFunc != nil {
		return m.BorrowFunc(ctx, bookID)
	}
	u, err := m.user()
	if err != nil {
		return nil, err
	}
	rec, err := m.Lib.Borrow(u, bookID)
	if err != nil {
		return nil, apiError(err)
	}
	return &domain.BorrowReceipt{Message: "Borrowed " + rec.BookTitle, Record: rec}, nil
}

func (m *MockLibraryAPI) Return(ctx context.Context, recordID int64) (*domain.ReturnReceipt, error) {
	m.record("Return")
	if m.ReturnFunc != nil {
		return m.ReturnFunc(ctx, recordID)
	}
	u, err := m.user()
	if err != nil {
		return nil, err
	}
	receipt, err := m.Lib.Return(u, recordID)
	if err != nil {
		return nil, apiError(err)
	}
	return receipt, nil
}

func (m *MockLibraryAPI) MyBorrowings(ctx context.Context) ([]*domain.BorrowRecord, error) {
	m.record("MyBorrowings")
	if m.MyBorrowingsFunc != nil {
		return m.MyBorrowingsFunc(ctx)
	}
	u, err := m.user()
	if err != nil {
		return nil, err
	}
	return m.Lib.Borrowings(u), nil
}

func (m *MockLibraryAPI) ListReviews(ctx context.Context, bookID int64) ([]*domain.Review, error) {
	m.record("ListReviews")
	if m.ListReviewsFunc != nil {
		return m.ListReviewsFunc(ctx, bookID)
	}
	return m.Lib.Reviews(bookID), nil
}

func (m *MockLibraryAPI) CreateReview(ctx context.Context, in domain.ReviewInput) (*domain.Review, error) {
	m.record("CreateReview")
	if m.CreateReviewFunc != nil {
		return m.CreateReviewFunc(ctx, in)
	}
	u, err := m.user()
	if err != nil {
		return nil, err
	}
	r, err := m.Lib.CreateReview(u, in)
	if err != nil {
		return nil, apiError(err)
	}
	return r, nil
}

func (m *MockLibraryAPI) UpdateReview(ctx context.Context, id int64, in domain.ReviewInput) (*domain.Review, error) {
	m.record("UpdateReview")
	if m.UpdateReviewFunc != nil {
		return m.UpdateReviewFunc(ctx, id, in)
	}
	u, err := m.user()
	if err != nil {
		return nil, err
	}
	r, err := m.Lib.UpdateReview(u, id, in)
	if err != nil {
		return nil, apiError(err)
	}
	return r, nil
}

func (m *MockLibraryAPI) DeleteReview(ctx context.Context, id int64) error {
	m.record("DeleteReview")
	u, err := m.user()
	if err != nil {
		return err
	}
	return apiError(m.Lib.DeleteReview(u, id))
}

func (m *MockLibraryAPI) ListNotifications(ctx context.Context) ([]*domain.Notification, error) {
	m.record("ListNotifications")
	u, err := m.user()
	if err != nil {
		return nil, err
	}
	return m.Lib.Notifications(u), nil
}

func (m *MockLibraryAPI) MarkAllNotificationsRead(ctx context.Context) error {
	m.record("MarkAllNotificationsRead")
	u, err := m.user()
	if err != nil {
		return err
	}
	m.Lib.MarkAllRead(u)
	return nil
}

// Admin surface

func (m *MockLibraryAPI) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	m.record("Dashboard")
	if _, err := m.admin(); err != nil {
		return nil, err
	}
	return m.Lib.Dashboard(), nil
}

func (m *MockLibraryAPI) AdminListBooks(ctx context.Context) ([]*domain.Book, error) {
	m.record("AdminListBooks")
	if _, err := m.admin(); err != nil {
		return nil, err
	}
	return m.Lib.AdminBooks(), nil
}

func (m *MockLibraryAPI) AdminCreateBook(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
	m.record("AdminCreateBook")
	if _, err := m.admin(); err != nil {
		return nil, err
	}
	return m.Lib.CreateBook(in)
}

func (m *MockLibraryAPI) AdminUpdateBook(ctx context.Context, id int64, in domain.BookInput) (*domain.Book, error) {
	m.record("AdminUpdateBook")
	if m.AdminUpdateBookFunc != nil {
		return m.AdminUpdateBookFunc(ctx, id, in)
	}
	if _, err := m.admin(); err != nil {
		return nil, err
	}
	return m.Lib.UpdateBook(id, in)
}

func (m *MockLibraryAPI) AdminDeleteBook(ctx context.Context, id int64) error {
	m.record("AdminDeleteBook")
	if _, err := m.admin(); err != nil {
		return err
	}
	return m.Lib.DeleteBook(id)
}

func (m *MockLibraryAPI) AdminListCategories(ctx context.Context) ([]*domain.Category, error) {
	m.record("AdminListCategories")
	if _, err := m.admin(); err != nil {
		return nil, err
	}
	return m.Lib.Categories(), nil
}

func (m *MockLibraryAPI) AdminCreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	m.record("AdminCreateCategory")
	if _, err := m.admin(); err != nil {
		return nil, err
	}
	return m.Lib.AddCategory(name)
}

func (m *MockLibraryAPI) AdminUpdateCategory(ctx context.Context, id int64, name string) (*domain.Category, error) {
	m.record("AdminUpdateCategory")
	if _, err := m.admin(); err != nil {
		return nil, err
	}
	return m.Lib.RenameCategory(id, name)
}

func (m *MockLibraryAPI) AdminDeleteCategory(ctx context.Context, id int64) error {
	m.record("AdminDeleteCategory")
	if _, err := m.admin(); err != nil {
		return err
	}
	return m.Lib.DeleteCategory(id)
}

func (m *MockLibraryAPI) AdminListBorrowings(ctx context.Context, filter domain.BorrowFilter) ([]*domain.BorrowRecord, error) {
	m.record("AdminListBorrowings")
	if _, err := m.admin(); err != nil {
		return nil, err
	}
	return m.Lib.AllBorrowings(filter), nil
}

func (m *MockLibraryAPI) AdminBorrowAction(ctx context.Context, action domain.BorrowAction, recordID int64, fine domain.Amount) error {
	m.record("AdminBorrowAction")
	if _, err := m.admin(); err != nil {
		return err
	}
	var amount *float64
	if action == domain.ActionFine {
		f := float64(fine)
		amount = &f
	}
	_, err := m.Lib.BorrowAction(action, recordID, amount)
	return apiError(err)
}

func (m *MockLibraryAPI) AdminListReviews(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, error) {
	m.record("AdminListReviews")
	if _, err := m.admin(); err != nil {
		return nil, err
	}
	return m.Lib.FilterReviews(filter), nil
}

func (m *MockLibraryAPI) AdminDeleteReview(ctx context.Context, id int64) error {
	m.record("AdminDeleteReview")
	if _, err := m.admin(); err != nil {
		return err
	}
	return m.Lib.RemoveReview(id)
}

// MockSessionRepository implements domain.SessionRepository for testing
type MockSessionRepository struct {
	mu sync.RWMutex

	// Function overrides
	SaveFunc   func(ctx context.Context, session *domain.Session) error
	LoadFunc   func(ctx context.Context) (*domain.Session, error)
	DeleteFunc func(ctx context.Context) error

	// In-memory storage; nil when nothing is saved
	Stored *domain.Session
	Saves  int
}

// NewMockSessionRepository creates an empty MockSessionRepository
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{}
}

func (m *MockSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Saves++
	if session == nil || !session.Authenticated() {
		m.Stored = nil
		return nil
	}
	s := *session
	m.Stored = &s
	return nil
}

func (m *MockSessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Stored == nil {
		return nil, domain.ErrNotFound
	}
	s := *m.Stored
	return &s, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stored = nil
	return nil
}

// Current returns a copy of the stored session, or nil
func (m *MockSessionRepository) Current() *domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Stored == nil {
		return nil
	}
	s := *m.Stored
	return &s
}

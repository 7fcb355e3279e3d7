package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"library-client/internal/domain"
	"library-client/internal/observability"
)

// Admin runs the admin console operations. The admin flag is checked
// locally before any call. Every successful catalog mutation is followed by
// a full catalog reload.
type Admin struct {
	api     domain.AdminAPI
	session SessionStore
	catalog Catalog

	mu       sync.RWMutex
	borrowed map[int64]int
}

func NewAdmin(api domain.AdminAPI, session SessionStore, catalog Catalog) *Admin {
	return &Admin{
		api:      api,
		session:  session,
		catalog:  catalog,
		borrowed: make(map[int64]int),
	}
}

func (a *Admin) require() (domain.Session, error) {
	sess := a.session.Current()
	if !sess.Authenticated() {
		return sess, domain.ErrUnauthenticated
	}
	if !sess.IsAdmin {
		return sess, domain.ErrUnauthorized
	}
	return sess, nil
}

func (a *Admin) fail(ctx context.Context, token, op string, err error) error {
	a.session.Check(ctx, token, err)
	observability.OperationsTotal.WithLabelValues("admin_"+op, resultLabel(err)).Inc()
	return fmt.Errorf("%s: %w", strings.ReplaceAll(op, "_", " "), err)
}

func (a *Admin) done(ctx context.Context, op string, reload bool) {
	observability.OperationsTotal.WithLabelValues("admin_"+op, "success").Inc()
	if !reload || a.catalog == nil {
		return
	}
	if _, err := a.catalog.Load(ctx); err != nil {
		observability.FromContext(ctx).Warn("catalog reload after admin change failed",
			slog.String("operation", op),
			slog.Any("error", err))
	}
}

func (a *Admin) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	sess, err := a.require()
	if err != nil {
		return nil, err
	}
	d, err := a.api.Dashboard(ctx)
	if err != nil {
		return nil, a.fail(ctx, sess.Token, "dashboard", err)
	}
	return d, nil
}

// Books lists every book with its active loan count, which later copy
// validation relies on.
func (a *Admin) Books(ctx context.Context) ([]*domain.Book, error) {
	sess, err := a.require()
	if err != nil {
		return nil, err
	}
	books, err := a.api.AdminListBooks(ctx)
	if err != nil {
		return nil, a.fail(ctx, sess.Token, "list_books", err)
	}

	a.mu.Lock()
	a.borrowed = make(map[int64]int, len(books))
	for _, b := range books {
		a.borrowed[b.ID] = b.BorrowedCount
	}
	a.mu.Unlock()
	return books, nil
}

func (a *Admin) CreateBook(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
	sess, err := a.require()
	if err != nil {
		return nil, err
	}
	if err := validateBook(in, 0); err != nil {
		return nil, err
	}
	b, err := a.api.AdminCreateBook(ctx, in)
	if err != nil {
		return nil, a.fail(ctx, sess.Token, "create_book", err)
	}
	a.done(ctx, "create_book", true)
	return b, nil
}

// UpdateBook overwrites a book. When the book's active loan count is known
// from Books, available plus borrowed copies may not exceed the total.
func (a *Admin) UpdateBook(ctx context.Context, id int64, in domain.BookInput) (*domain.Book, error) {
	sess, err := a.require()
	if err != nil {
		return nil, err
	}

	a.mu.RLock()
	borrowed := a.borrowed[id]
	a.mu.RUnlock()
	if err := validateBook(in, borrowed); err != nil {
		return nil, err
	}

	b, err := a.api.AdminUpdateBook(ctx, id, in)
	if err != nil {
		return nil, a.fail(ctx, sess.Token, "update_book", err)
	}

	a.mu.Lock()
	a.borrowed[id] = b.BorrowedCount
	a.mu.Unlock()

	a.done(ctx, "update_book", true)
	return b, nil
}

func validateBook(in domain.BookInput, borrowed int) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return domain.ErrInvalidInput
	}
	return in.ValidateCopies(borrowed)
}

func (a *Admin) DeleteBook(ctx context.Context, id int64) error {
	sess, err := a.require()
	if err != nil {
		return err
	}
	if err := a.api.AdminDeleteBook(ctx, id); err != nil {
		return a.fail(ctx, sess.Token, "delete_book", err)
	}

	a.mu.Lock()
	delete(a.borrowed, id)
	a.mu.Unlock()

	a.done(ctx, "delete_book", true)
	return nil
}

func (a *Admin) Categories(ctx context.Context) ([]*domain.Category, error) {
	sess, err := a.require()
	if err != nil {
		return nil, err
	}
	cats, err := a.api.AdminListCategories(ctx)
	if err != nil {
		return nil, a.fail(ctx, sess.Token, "list_categories", err)
	}
	return cats, nil
}

func (a *Admin) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	sess, err := a.require()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	cat, err := a.api.AdminCreateCategory(ctx, name)
	if err != nil {
		return nil, a.fail(ctx, sess.Token, "create_category", err)
	}
	a.done(ctx, "create_category", true)
	return cat, nil
}

func (a *Admin) RenameCategory(ctx context.Context, id int64, name string) (*domain.Category, error) {
	sess, err := a.require()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	cat, err := a.api.AdminUpdateCategory(ctx, id, name)
	if err != nil {
		return nil, a.fail(ctx, sess.Token, "rename_category", err)
	}
	a.done(ctx, "rename_category", true)
	return cat, nil
}

// DeleteCategory fails with domain.ErrCategoryInUse while books still belong to it.
func (a *Admin) DeleteCategory(ctx context.Context, id int64) error {
	sess, err := a.require()
	if err != nil {
		return err
	}
	if err := a.api.AdminDeleteCategory(ctx, id); err != nil {
		return a.fail(ctx, sess.Token, "delete_category", err)
	}
	a.done(ctx, "delete_category", true)
	return nil
}

func (a *Admin) Borrowings(ctx context.Context, filter domain.BorrowFilter) ([]*domain.BorrowRecord, error) {
	sess, err := a.require()
	if err != nil {
		return nil, err
	}
	records, err := a.api.AdminListBorrowings(ctx, filter)
	if err != nil {
		return nil, a.fail(ctx, sess.Token, "list_borrowings", err)
	}
	return records, nil
}

// SendReminder asks the server to notify the borrower of the due date.
func (a *Admin) SendReminder(ctx context.Context, recordID int64) error {
	sess, err := a.require()
	if err != nil {
		return err
	}
	if err := a.api.AdminBorrowAction(ctx, domain.ActionReminder, recordID, 0); err != nil {
		return a.fail(ctx, sess.Token, "send_reminder", err)
	}
	a.done(ctx, "send_reminder", false)
	return nil
}

func (a *Admin) SetFine(ctx context.Context, recordID int64, fine domain.Amount) error {
	sess, err := a.require()
	if err != nil {
		return err
	}
	if fine < 0 {
		return domain.ErrInvalidFine
	}
	if err := a.api.AdminBorrowAction(ctx, domain.ActionFine, recordID, fine); err != nil {
		return a.fail(ctx, sess.Token, "set_fine", err)
	}
	a.done(ctx, "set_fine", false)
	return nil
}

// ForceReturn closes a loan on the borrower's behalf.
func (a *Admin) ForceReturn(ctx context.Context, recordID int64) error {
	sess, err := a.require()
	if err != nil {
		return err
	}
	if err := a.api.AdminBorrowAction(ctx, domain.ActionReturn, recordID, 0); err != nil {
		return a.fail(ctx, sess.Token, "force_return", err)
	}
	a.done(ctx, "force_return", true)
	return nil
}

func (a *Admin) Reviews(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, error) {
	sess, err := a.require()
	if err != nil {
		return nil, err
	}
	reviews, err := a.api.AdminListReviews(ctx, filter)
	if err != nil {
		return nil, a.fail(ctx, sess.Token, "list_reviews", err)
	}
	return reviews, nil
}

func (a *Admin) DeleteReview(ctx context.Context, id int64) error {
	sess, err := a.require()
	if err != nil {
		return err
	}
	if err := a.api.AdminDeleteReview(ctx, id); err != nil {
		return a.fail(ctx, sess.Token, "delete_review", err)
	}
	a.done(ctx, "delete_review", false)
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"library-client/internal/domain"
	"library-client/internal/observability"
)

// SessionStore is the part of session.Store the coordinator needs.
type SessionStore interface {
	Current() domain.Session
	Check(ctx context.Context, token string, err error) bool
}

// Catalog is the part of catalog.Cache the coordinator needs.
type Catalog interface {
	Book(id int64) (*domain.Book, bool)
	ApplyBorrowDelta(bookID int64, delta int) bool
	Load(ctx context.Context) (bool, error)
}

// CoordinatorAPI is the subset of the library API used for borrowing and reviewing.
type CoordinatorAPI interface {
	domain.BorrowAPI
	domain.ReviewAPI
	domain.NotificationAPI
}

// BookState is what a book view needs to decide which actions to offer.
type BookState struct {
	CanBorrow    bool
	ActiveRecord *domain.BorrowRecord
	MyReview     *domain.Review
}

// Coordinator checks preconditions for borrow, return and review, issues the
// call, and reconciles local state once the call succeeds. Nothing local
// changes when a call fails, and failed calls are never retried.
type Coordinator struct {
	api     CoordinatorAPI
	session SessionStore
	catalog Catalog
	now     func() time.Time

	mu      sync.RWMutex
	records []*domain.BorrowRecord
	owner   string // session token the records belong to
	reviews map[int64][]*domain.Review
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClock sets the time source used for locally created records.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(api CoordinatorAPI, session SessionStore, catalog Catalog, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		api:     api,
		session: session,
		catalog: catalog,
		now:     time.Now,
		reviews: make(map[int64][]*domain.Review),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Borrow lends a book to the current user. A cached book with no available
// copies is refused locally; a book missing from the cache is left for the
// API to judge.
func (c *Coordinator) Borrow(ctx context.Context, bookID int64) (*domain.BorrowRecord, error) {
	sess := c.session.Current()
	if !sess.Authenticated() {
		return nil, c.observe(ctx, "borrow", domain.ErrUnauthenticated)
	}
	if b, ok := c.catalog.Book(bookID); ok && !b.Available() {
		return nil, c.observe(ctx, "borrow", fmt.Errorf("borrow book %d: %w", bookID, domain.ErrUnavailable))
	}

	receipt, err := c.api.Borrow(ctx, bookID)
	if err != nil {
		c.session.Check(ctx, sess.Token, err)
		return nil, c.observe(ctx, "borrow", fmt.Errorf("borrow book %d: %w", bookID, err))
	}

	now := c.now()
	rec := &domain.BorrowRecord{BookID: bookID, UserID: sess.UserID, BorrowDate: now}
	if receipt != nil && receipt.Record != nil {
		r := *receipt.Record
		rec = &r
	} else if r := c.serverRecord(ctx, sess, bookID); r != nil {
		rec = r
	}
	if rec.BookID == 0 {
		rec.BookID = bookID
	}
	if rec.BorrowDate.IsZero() {
		rec.BorrowDate = now
	}
	if rec.DueDate.IsZero() {
		rec.DueDate = rec.BorrowDate.Add(domain.LoanPeriod)
	}
	if rec.BookTitle == "" {
		if b, ok := c.catalog.Book(bookID); ok {
			rec.BookTitle = b.Title
		}
	}

	c.mu.Lock()
	if c.owner != sess.Token {
		c.records = nil
		c.owner = sess.Token
	}
	c.records = append([]*domain.BorrowRecord{rec}, c.records...)
	out := *rec
	c.mu.Unlock()

	c.catalog.ApplyBorrowDelta(bookID, -1)

	observability.FromContext(ctx).Info("book borrowed",
		slog.Int64("book_id", bookID),
		slog.Int64("record_id", rec.ID),
		slog.Time("due", rec.DueDate))
	c.observe(ctx, "borrow", nil)
	return &out, nil
}

// serverRecord looks up the active loan of bookID after a borrow response
// that carried only a message. It returns nil when the lookup fails or finds
// nothing; the caller then keeps a local record without a server id.
func (c *Coordinator) serverRecord(ctx context.Context, sess domain.Session, bookID int64) *domain.BorrowRecord {
	records, err := c.api.MyBorrowings(ctx)
	if err != nil {
		c.session.Check(ctx, sess.Token, err)
		observability.FromContext(ctx).Warn("could not resolve borrow record",
			slog.Int64("book_id", bookID),
			slog.String("error", err.Error()))
		return nil
	}
	for _, r := range records {
		if r != nil && r.BookID == bookID && r.Active() {
			rr := *r
			return &rr
		}
	}
	return nil
}

// Return closes a loan. A record known locally as already returned fails
// with ErrNotFound without calling the API. A record not known locally is
// still sent; the catalog is then left for the next load to correct.
func (c *Coordinator) Return(ctx context.Context, recordID int64) (*domain.ReturnReceipt, error) {
	sess := c.session.Current()
	if !sess.Authenticated() {
		return nil, c.observe(ctx, "return", domain.ErrUnauthenticated)
	}

	c.mu.RLock()
	local := c.findRecord(sess.Token, recordID)
	returned := local != nil && !local.Active()
	c.mu.RUnlock()
	if returned {
		return nil, c.observe(ctx, "return", fmt.Errorf("return record %d: %w", recordID, domain.ErrNotFound))
	}

	receipt, err := c.api.Return(ctx, recordID)
	if err != nil {
		c.session.Check(ctx, sess.Token, err)
		return nil, c.observe(ctx, "return", fmt.Errorf("return record %d: %w", recordID, err))
	}
	if receipt == nil {
		receipt = &domain.ReturnReceipt{}
	}

	var bookID int64
	c.mu.Lock()
	if r := c.findRecord(sess.Token, recordID); r != nil && r.Active() {
		at := c.now()
		if receipt.ReturnDate != nil {
			at = *receipt.ReturnDate
		}
		r.ReturnDate = &at
		r.IsReturned = true
		r.Fine = receipt.Fine
		bookID = r.BookID
	}
	c.mu.Unlock()

	if bookID != 0 {
		c.catalog.ApplyBorrowDelta(bookID, 1)
	}

	observability.FromContext(ctx).Info("book returned",
		slog.Int64("record_id", recordID),
		slog.String("fine", receipt.Fine.String()))
	c.observe(ctx, "return", nil)
	return receipt, nil
}

// SubmitReview creates the current user's review of a book, or updates it
// when one is already among the loaded reviews. It reports whether an
// existing review was updated.
func (c *Coordinator) SubmitReview(ctx context.Context, bookID int64, rating int, content string) (*domain.Review, bool, error) {
	if !domain.ValidRating(rating) {
		return nil, false, c.observe(ctx, "review", domain.ErrInvalidRating)
	}
	sess := c.session.Current()
	if !sess.Authenticated() {
		return nil, false, c.observe(ctx, "review", domain.ErrUnauthenticated)
	}

	in := domain.ReviewInput{BookID: bookID, Rating: rating, Content: content}

	c.mu.RLock()
	existing := c.ownReview(ctx, sess, bookID)
	c.mu.RUnlock()

	var (
		saved *domain.Review
		err   error
	)
	if existing != nil {
		saved, err = c.api.UpdateReview(ctx, existing.ID, in)
	} else {
		saved, err = c.api.CreateReview(ctx, in)
	}
	if err != nil {
		c.session.Check(ctx, sess.Token, err)
		if existing == nil && errors.Is(err, domain.ErrDuplicateReview) {
			observability.FromContext(ctx).Warn("review already exists on server",
				slog.Int64("book_id", bookID))
		}
		return nil, false, c.observe(ctx, "review", fmt.Errorf("review book %d: %w", bookID, err))
	}

	r := *saved
	if r.BookID == 0 {
		r.BookID = bookID
	}
	if r.UserID == 0 {
		r.UserID = sess.UserID
	}
	if r.UserName == "" {
		r.UserName = sess.Username
	}
	if existing != nil && r.ID == 0 {
		r.ID = existing.ID
	}

	c.mu.Lock()
	list := c.reviews[bookID]
	replaced := false
	for i := range list {
		if list[i].ID == r.ID {
			list[i] = &r
			replaced = true
			break
		}
	}
	if !replaced {
		list = append([]*domain.Review{&r}, list...)
	}
	c.reviews[bookID] = list
	out := r
	c.mu.Unlock()

	c.observe(ctx, "review", nil)
	return &out, existing != nil, nil
}

// ownReview finds the session user's review of bookID. Reviews are matched
// by user id; when either side lacks one, the username or display name is
// compared instead and the match is logged as degraded. Callers hold c.mu.
func (c *Coordinator) ownReview(ctx context.Context, sess domain.Session, bookID int64) *domain.Review {
	for _, r := range c.reviews[bookID] {
		if sess.UserID != 0 && r.UserID != 0 {
			if r.UserID == sess.UserID {
				return r
			}
			continue
		}
		if r.UserName != "" && (r.UserName == sess.Username || r.UserName == sess.DisplayName) {
			observability.FromContext(ctx).Warn("review matched by name, user id unavailable",
				slog.Int64("review_id", r.ID),
				slog.String("name", r.UserName))
			return r
		}
	}
	return nil
}

// LoadReviews fetches the reviews of a book and replaces the local list.
func (c *Coordinator) LoadReviews(ctx context.Context, bookID int64) ([]*domain.Review, error) {
	token := c.session.Current().Token
	reviews, err := c.api.ListReviews(ctx, bookID)
	if err != nil {
		c.session.Check(ctx, token, err)
		return nil, fmt.Errorf("load reviews of book %d: %w", bookID, err)
	}

	list := make([]*domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if r == nil {
			continue
		}
		rr := *r
		list = append(list, &rr)
	}

	c.mu.Lock()
	c.reviews[bookID] = list
	c.mu.Unlock()
	return copyReviews(list), nil
}

// Reviews returns the loaded reviews of a book.
func (c *Coordinator) Reviews(bookID int64) []*domain.Review {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyReviews(c.reviews[bookID])
}

// DeleteReview deletes one of the current user's reviews.
func (c *Coordinator) DeleteReview(ctx context.Context, reviewID int64) error {
	sess := c.session.Current()
	if !sess.Authenticated() {
		return c.observe(ctx, "review_delete", domain.ErrUnauthenticated)
	}
	if err := c.api.DeleteReview(ctx, reviewID); err != nil {
		c.session.Check(ctx, sess.Token, err)
		return c.observe(ctx, "review_delete", fmt.Errorf("delete review %d: %w", reviewID, err))
	}

	c.mu.Lock()
	for bookID, list := range c.reviews {
		for i, r := range list {
			if r.ID == reviewID {
				c.reviews[bookID] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
	c.mu.Unlock()

	c.observe(ctx, "review_delete", nil)
	return nil
}

// LoadBorrowings fetches the current user's loans and replaces the local records.
func (c *Coordinator) LoadBorrowings(ctx context.Context) ([]*domain.BorrowRecord, error) {
	sess := c.session.Current()
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	records, err := c.api.MyBorrowings(ctx)
	if err != nil {
		c.session.Check(ctx, sess.Token, err)
		return nil, fmt.Errorf("load borrowings: %w", err)
	}

	list := make([]*domain.BorrowRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		rr := *r
		if rr.DueDate.IsZero() && !rr.BorrowDate.IsZero() {
			rr.DueDate = rr.BorrowDate.Add(domain.LoanPeriod)
		}
		list = append(list, &rr)
	}

	c.mu.Lock()
	c.records = list
	c.owner = sess.Token
	c.mu.Unlock()
	return copyRecords(list), nil
}

// Borrowings returns the current session's local loan records, newest first.
func (c *Coordinator) Borrowings() []*domain.BorrowRecord {
	token := c.session.Current().Token
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyRecords(c.recordsFor(token))
}

// BookState derives the actions available on a book from local state.
func (c *Coordinator) BookState(bookID int64) BookState {
	sess := c.session.Current()

	var st BookState
	c.mu.RLock()
	for _, r := range c.recordsFor(sess.Token) {
		if r.BookID == bookID && r.Active() {
			rr := *r
			st.ActiveRecord = &rr
			break
		}
	}
	if sess.Authenticated() {
		if r := c.ownReview(context.Background(), sess, bookID); r != nil {
			rr := *r
			st.MyReview = &rr
		}
	}
	c.mu.RUnlock()

	available := true
	if b, ok := c.catalog.Book(bookID); ok {
		available = b.Available()
	}
	st.CanBorrow = sess.Authenticated() && available && st.ActiveRecord == nil
	return st
}

// Notifications lists the current user's notifications.
func (c *Coordinator) Notifications(ctx context.Context) ([]*domain.Notification, error) {
	sess := c.session.Current()
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	notes, err := c.api.ListNotifications(ctx)
	if err != nil {
		c.session.Check(ctx, sess.Token, err)
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notes, nil
}

func (c *Coordinator) MarkAllNotificationsRead(ctx context.Context) error {
	sess := c.session.Current()
	if !sess.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if err := c.api.MarkAllNotificationsRead(ctx); err != nil {
		c.session.Check(ctx, sess.Token, err)
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// Reset forgets all local loans and reviews, e.g. after signing out.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.records = nil
	c.owner = ""
	c.reviews = make(map[int64][]*domain.Review)
	c.mu.Unlock()
}

// recordsFor returns the local records when they were loaded under token.
// Records left over from another session are invisible. Callers hold c.mu.
func (c *Coordinator) recordsFor(token string) []*domain.BorrowRecord {
	if token == "" || token != c.owner {
		return nil
	}
	return c.records
}

// findRecord must be called with c.mu held.
func (c *Coordinator) findRecord(token string, id int64) *domain.BorrowRecord {
	if id == 0 {
		return nil
	}
	for _, r := range c.recordsFor(token) {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (c *Coordinator) observe(ctx context.Context, op string, err error) error {
	observability.OperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	if err != nil {
		observability.FromContext(ctx).Debug("operation failed", slog.String("operation", op), slog.Any("error", err))
	}
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrAlreadyBorrowed):
		return "already_borrowed"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrDuplicateReview):
		return "duplicate_review"
	case errors.Is(err, domain.ErrInvalidRating):
		return "invalid_rating"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func copyRecords(in []*domain.BorrowRecord) []*domain.BorrowRecord {
	out := make([]*domain.BorrowRecord, len(in))
	for i, r := range in {
		rr := *r
		out[i] = &rr
	}
	return out
}

func copyReviews(in []*domain.Review) []*domain.Review {
	out := make([]*domain.Review, len(in))
	for i, r := range in {
		rr := *r
		out[i] = &rr
	}
	return out
}

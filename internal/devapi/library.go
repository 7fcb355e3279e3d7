// Package devapi is an in-memory implementation of the library REST API.
// It backs the development server, the test doubles and the end-to-end tests.
package devapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"library-client/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken   = errors.New("a user with that username already exists")
	ErrAlreadyReturned = errors.New("already returned")
	ErrInvalidAction   = errors.New("invalid action")
)

const minPasswordLength = 4

// User is an account of the development API.
type User struct {
	ID       int64
	Username string
	FullName string
	Address  string
	Phone    string
	IsAdmin  bool

	passwordHash []byte
}

// Profile returns the profile document served for u.
func (u *User) Profile() *domain.Profile {
	return &domain.Profile{
		ID:       u.ID,
		UserID:   u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Address:  u.Address,
		Phone:    u.Phone,
		IsAdmin:  u.IsAdmin,
	}
}

type notification struct {
	domain.Notification
	userID int64
}

// Library holds users, books, loans and reviews. All methods are safe for
// concurrent use; returned values are copies.
type Library struct {
	mu sync.RWMutex

	now        func() time.Time
	bcryptCost int
	seq        int64

	users         map[int64]*User
	usernames     map[string]int64
	tokens        map[string]int64
	userTokens    map[int64]string
	categories    map[int64]*domain.Category
	books         map[int64]*domain.Book
	records       map[int64]*domain.BorrowRecord
	reviews       map[int64]*domain.Review
	notifications map[int64]*notification
}

// Option configures a Library.
type Option func(*Library)

// WithClock replaces time.Now, used for due dates and fines.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(l *Library) { l.bcryptCost = cost }
}

// NewLibrary creates an empty library.
func NewLibrary(opts ...Option) *Library {
	l := &Library{
		now:           time.Now,
		bcryptCost:    bcrypt.DefaultCost,
		users:         make(map[int64]*User),
		usernames:     make(map[string]int64),
		tokens:        make(map[string]int64),
		userTokens:    make(map[int64]string),
		categories:    make(map[int64]*domain.Category),
		books:         make(map[int64]*domain.Book),
		records:       make(map[int64]*domain.BorrowRecord),
		reviews:       make(map[int64]*domain.Review),
		notifications: make(map[int64]*notification),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Library) nextID() int64 {
	l.seq++
	return l.seq
}

// Accounts

// AddUser registers an account.
func (l *Library) AddUser(username, password, fullName string, admin bool) (*User, error) {
	return l.addUser(domain.Signup{Username: username, Password: password, FullName: fullName}, admin)
}

func (l *Library) addUser(s domain.Signup, admin bool) (*User, error) {
	username := strings.TrimSpace(s.Username)
	if username == "" || len(s.Password) < minPasswordLength {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), l.bcryptCost)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.usernames[strings.ToLower(username)]; exists {
		return nil, ErrUsernameTaken
	}

	u := &User{
		ID:           l.nextID(),
		Username:     username,
		FullName:     s.FullName,
		Address:      s.Address,
		Phone:        s.Phone,
		IsAdmin:      admin,
		passwordHash: hash,
	}
	l.users[u.ID] = u
	l.usernames[strings.ToLower(username)] = u.ID
	c := *u
	return &c, nil
}

// Signup registers a regular account and returns its token.
func (l *Library) Signup(s domain.Signup) (string, *User, error) {
	u, err := l.addUser(s, false)
	if err != nil {
		return "", nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokenFor(u.ID), u, nil
}

// Login checks credentials and returns the account's token, reusing an existing one.
func (l *Library) Login(username, password string) (string, *User, error) {
	l.mu.RLock()
	id, ok := l.usernames[strings.ToLower(strings.TrimSpace(username))]
	var hash []byte
	if ok {
		hash = l.users[id].passwordHash
	}
	l.mu.RUnlock()

	if !ok {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	u := *l.users[id]
	return l.tokenFor(id), &u, nil
}

func (l *Library) tokenFor(userID int64) string {
	if token, ok := l.userTokens[userID]; ok {
		return token
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	l.tokens[token] = userID
	l.userTokens[userID] = token
	return token
}

// Authenticate resolves a token to its account.
func (l *Library) Authenticate(token string) (*User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.tokens[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	u := *l.users[id]
	return &u, nil
}

// RevokeToken invalidates token, as if it expired server-side.
func (l *Library) RevokeToken(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id, ok := l.tokens[token]; ok {
		delete(l.userTokens, id)
	}
	delete(l.tokens, token)
}

// Categories

func (l *Library) Categories() []*domain.Category {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*domain.Category, 0, len(l.categories))
	for _, c := range l.categories {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Library) AddCategory(name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c := &domain.Category{ID: l.nextID(), Name: name}
	l.categories[c.ID] = c
	cc := *c
	return &cc, nil
}

func (l *Library) RenameCategory(id int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Name = name
	cc := *c
	return &cc, nil
}

// DeleteCategory removes an empty category.
func (l *Library) DeleteCategory(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.categories[id]; !ok {
		return domain.ErrNotFound
	}
	for _, b := range l.books {
		if b.CategoryID == id {
			return domain.ErrCategoryInUse
		}
	}
	delete(l.categories, id)
	return nil
}

// Books

func (l *Library) Books() []*domain.Book {
	return l.filterBooks(func(*domain.Book) bool { return true })
}

// SearchBooks matches q case-insensitively against title and author.
func (l *Library) SearchBooks(q string) []*domain.Book {
	q = strings.ToLower(strings.TrimSpace(q))
	return l.filterBooks(func(b *domain.Book) bool {
		return q == "" ||
			strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q)
	})
}

func (l *Library) BooksByCategory(categoryID int64) []*domain.Book {
	return l.filterBooks(func(b *domain.Book) bool { return b.CategoryID == categoryID })
}

func (l *Library) filterBooks(keep func(*domain.Book) bool) []*domain.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*domain.Book, 0, len(l.books))
	for _, b := range l.books {
		if keep(b) {
			bb := *b
			out = append(out, &bb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Library) Book(id int64) (*domain.Book, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, ok := l.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	bb := *b
	return &bb, nil
}

// AdminBooks lists books with their number of active loans.
func (l *Library) AdminBooks() []*domain.Book {
	books := l.Books()

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range books {
		b.BorrowedCount = l.activeLoans(b.ID)
	}
	return books
}

func (l *Library) activeLoans(bookID int64) int {
	n := 0
	for _, r := range l.records {
		if r.BookID == bookID && r.Active() {
			n++
		}
	}
	return n
}

func (l *Library) CreateBook(in domain.BookInput) (*domain.Book, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := in.ValidateCopies(0); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if in.CategoryID != 0 {
		if _, ok := l.categories[in.CategoryID]; !ok {
			return nil, domain.ErrInvalidInput
		}
	}

	b := &domain.Book{ID: l.nextID()}
	applyBookInput(b, in)
	l.books[b.ID] = b
	bb := *b
	return &bb, nil
}

// UpdateBook overwrites a book. Copy counts are checked against active loans.
func (l *Library) UpdateBook(id int64, in domain.BookInput) (*domain.Book, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return nil, domain.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if in.CategoryID != 0 {
		if _, ok := l.categories[in.CategoryID]; !ok {
			return nil, domain.ErrInvalidInput
		}
	}
	borrowed := l.activeLoans(id)
	if err := in.ValidateCopies(borrowed); err != nil {
		return nil, err
	}

	applyBookInput(b, in)
	bb := *b
	bb.BorrowedCount = borrowed
	return &bb, nil
}

func applyBookInput(b *domain.Book, in domain.BookInput) {
	b.Title = strings.TrimSpace(in.Title)
	b.Author = strings.TrimSpace(in.Author)
	b.CategoryID = in.CategoryID
	b.TotalCopies = in.TotalCopies
	b.AvailableCopies = in.AvailableCopies
	b.ISBN = in.ISBN
}

// DeleteBook removes a book together with its loans and reviews.
func (l *Library) DeleteBook(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.books[id]; !ok {
		return domain.ErrNotFound
	}
	delete(l.books, id)
	for rid, r := range l.records {
		if r.BookID == id {
			delete(l.records, rid)
		}
	}
	for rid, r := range l.reviews {
		if r.BookID == id {
			delete(l.reviews, rid)
		}
	}
	return nil
}

// Loans

// Borrow lends bookID to u. An outstanding loan of the same book is checked
// before availability.
func (l *Library) Borrow(u *User, bookID int64) (*domain.BorrowRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.books[bookID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, r := range l.records {
		if r.UserID == u.ID && r.BookID == bookID && r.Active() {
			return nil, domain.ErrAlreadyBorrowed
		}
	}
	if b.AvailableCopies <= 0 {
		return nil, domain.ErrUnavailable
	}

	now := l.now()
	r := &domain.BorrowRecord{
		ID:         l.nextID(),
		BookID:     bookID,
		UserID:     u.ID,
		BorrowDate: now,
		DueDate:    now.Add(domain.LoanPeriod),
	}
	l.records[r.ID] = r
	b.AvailableCopies--

	return l.recordView(r), nil
}

// Return closes a loan held by u.
func (l *Library) Return(u *User, recordID int64) (*domain.ReturnReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[recordID]
	if !ok || r.UserID != u.ID {
		return nil, domain.ErrNotFound
	}
	return l.returnRecord(r)
}

func (l *Library) returnRecord(r *domain.BorrowRecord) (*domain.ReturnReceipt, error) {
	if !r.Active() {
		return nil, ErrAlreadyReturned
	}

	now := l.now()
	r.ReturnDate = &now
	r.IsReturned = true
	r.Fine = domain.LateFine(r.DueDate, now)

	title := ""
	if b, ok := l.books[r.BookID]; ok {
		title = b.Title
		if b.AvailableCopies < b.TotalCopies {
			b.AvailableCopies++
		}
	}

	if r.Fine > 0 {
		days := int(r.Fine / domain.FinePerDay)
		l.notify(r.UserID, fmt.Sprintf("You were %d days late returning '%s'. A fine of Rs.%s has been added.",
			days, title, r.Fine))
	}

	returned := now
	return &domain.ReturnReceipt{
		Message:    "Returned " + title,
		Fine:       r.Fine,
		ReturnDate: &returned,
	}, nil
}

// Borrowings lists u's loans, newest first.
func (l *Library) Borrowings(u *User) []*domain.BorrowRecord {
	return l.listRecords(func(r *domain.BorrowRecord) bool { return r.UserID == u.ID })
}

// AllBorrowings lists every loan matching filter, newest first.
func (l *Library) AllBorrowings(filter domain.BorrowFilter) []*domain.BorrowRecord {
	now := l.now()
	return l.listRecords(func(r *domain.BorrowRecord) bool {
		switch filter {
		case domain.FilterReturned:
			return !r.Active()
		case domain.FilterUnreturned:
			return r.Active()
		case domain.FilterOverdue:
			return r.Overdue(now)
		default:
			return true
		}
	})
}

func (l *Library) listRecords(keep func(*domain.BorrowRecord) bool) []*domain.BorrowRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*domain.BorrowRecord, 0)
	for _, r := range l.records {
		if keep(r) {
			out = append(out, l.recordView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (l *Library) recordView(r *domain.BorrowRecord) *domain.BorrowRecord {
	rr := *r
	if r.ReturnDate != nil {
		t := *r.ReturnDate
		rr.ReturnDate = &t
	}
	if b, ok := l.books[r.BookID]; ok {
		rr.BookTitle = b.Title
	}
	if u, ok := l.users[r.UserID]; ok {
		rr.Username = u.Username
	}
	return &rr
}

// BorrowAction applies an admin action to a loan.
func (l *Library) BorrowAction(action domain.BorrowAction, recordID int64, fine *float64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[recordID]
	if !ok {
		return "", domain.ErrNotFound
	}

	switch action {
	case domain.ActionReminder:
		title := ""
		if b, ok := l.books[r.BookID]; ok {
			title = b.Title
		}
		due := "ASAP"
		if !r.DueDate.IsZero() {
			due = r.DueDate.Format("Jan 02, 2006")
		}
		l.notify(r.UserID, fmt.Sprintf("Reminder: Please return '%s' by %s.", title, due))
		return "reminder sent", nil
	case domain.ActionFine:
		if fine == nil {
			return "", domain.ErrInvalidInput
		}
		if *fine < 0 {
			return "", domain.ErrInvalidFine
		}
		r.Fine = domain.Amount(*fine)
		return "fine updated", nil
	case domain.ActionReturn:
		if _, err := l.returnRecord(r); err != nil {
			return "", err
		}
		return "book returned", nil
	}
	return "", ErrInvalidAction
}

// Reviews

// Reviews lists the reviews of bookID, or of every book when bookID is 0, newest first.
func (l *Library) Reviews(bookID int64) []*domain.Review {
	return l.listReviews(func(r *domain.Review) bool { return bookID == 0 || r.BookID == bookID })
}

// FilterReviews is the admin listing: title substring and exact rating, both optional.
func (l *Library) FilterReviews(f domain.ReviewFilter) []*domain.Review {
	title := strings.ToLower(strings.TrimSpace(f.BookTitle))
	l.mu.RLock()
	titles := make(map[int64]string, len(l.books))
	for id, b := range l.books {
		titles[id] = strings.ToLower(b.Title)
	}
	l.mu.RUnlock()

	return l.listReviews(func(r *domain.Review) bool {
		if title != "" && !strings.Contains(titles[r.BookID], title) {
			return false
		}
		return f.Rating == 0 || r.Rating == f.Rating
	})
}

func (l *Library) listReviews(keep func(*domain.Review) bool) []*domain.Review {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*domain.Review, 0)
	for _, r := range l.reviews {
		if keep(r) {
			out = append(out, l.reviewView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (l *Library) reviewView(r *domain.Review) *domain.Review {
	rr := *r
	if u, ok := l.users[r.UserID]; ok {
		rr.UserName = u.Username
	}
	if b, ok := l.books[r.BookID]; ok {
		rr.BookTitle = b.Title
	}
	return &rr
}

// CreateReview adds u's review of a book; one per (user, book).
func (l *Library) CreateReview(u *User, in domain.ReviewInput) (*domain.Review, error) {
	if !domain.ValidRating(in.Rating) {
		return nil, domain.ErrInvalidRating
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.books[in.BookID]; !ok {
		return nil, domain.ErrNotFound
	}
	for _, r := range l.reviews {
		if r.UserID == u.ID && r.BookID == in.BookID {
			return nil, domain.ErrDuplicateReview
		}
	}

	r := &domain.Review{
		ID:        l.nextID(),
		BookID:    in.BookID,
		UserID:    u.ID,
		Rating:    in.Rating,
		Content:   in.Content,
		CreatedAt: l.now(),
	}
	l.reviews[r.ID] = r
	return l.reviewView(r), nil
}

// UpdateReview changes the rating and content of one of u's reviews.
func (l *Library) UpdateReview(u *User, id int64, in domain.ReviewInput) (*domain.Review, error) {
	if !domain.ValidRating(in.Rating) {
		return nil, domain.ErrInvalidRating
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.reviews[id]
	if !ok || r.UserID != u.ID {
		return nil, domain.ErrNotFound
	}
	r.Rating = in.Rating
	r.Content = in.Content
	return l.reviewView(r), nil
}

// DeleteReview removes one of u's reviews.
func (l *Library) DeleteReview(u *User, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.reviews[id]
	if !ok || r.UserID != u.ID {
		return domain.ErrNotFound
	}
	delete(l.reviews, id)
	return nil
}

// RemoveReview deletes any review.
func (l *Library) RemoveReview(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.reviews[id]; !ok {
		return domain.ErrNotFound
	}
	delete(l.reviews, id)
	return nil
}

// Notifications

// notify must be called with the write lock held.
func (l *Library) notify(userID int64, msg string) {
	n := &notification{userID: userID}
	n.ID = l.nextID()
	n.Message = msg
	n.CreatedAt = l.now()
	l.notifications[n.ID] = n
}

func (l *Library) Notifications(u *User) []*domain.Notification {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*domain.Notification, 0)
	for _, n := range l.notifications {
		if n.userID == u.ID {
			nn := n.Notification
			out = append(out, &nn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (l *Library) MarkAllRead(u *User) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, n := range l.notifications {
		if n.userID == u.ID {
			n.IsRead = true
		}
	}
}

// Dashboard returns the admin console counters.
func (l *Library) Dashboard() *domain.Dashboard {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &domain.Dashboard{
		UserCount:     len(l.users),
		BookCount:     len(l.books),
		BorrowCount:   len(l.records),
		ReviewCount:   len(l.reviews),
		CategoryCount: len(l.categories),
	}
}

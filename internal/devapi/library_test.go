package devapi

import (
	"strings"
	"testing"
	"time"

	"library-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLibrary(t *testing.T) (*Library, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)}
	return NewLibrary(WithClock(c.now), WithBcryptCost(bcrypt.MinCost)), c
}

func addBook(t *testing.T, l *Library, title string, copies int) *domain.Book {
	t.Helper()
	b, err := l.CreateBook(domain.BookInput{Title: title, Author: "Author", TotalCopies: copies, AvailableCopies: copies})
	require.NoError(t, err)
	return b
}

func addUser(t *testing.T, l *Library, name string) *User {
	t.Helper()
	u, err := l.AddUser(name, "secret", strings.ToUpper(name), false)
	require.NoError(t, err)
	return u
}

func TestLibrary_Login(t *testing.T) {
	l, _ := newTestLibrary(t)
	_, err := l.AddUser("alice", "secret", "Alice", true)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		token, u, err := l.Login("alice", "secret")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, u.IsAdmin)
		assert.Equal(t, "Alice", u.FullName)
	})

	t.Run("token is reused", func(t *testing.T) {
		first, _, err := l.Login("alice", "secret")
		require.NoError(t, err)
		second, _, err := l.Login("ALICE", "secret")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := l.Login("alice", "nope")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := l.Login("bob", "secret")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestLibrary_Signup(t *testing.T) {
	l, _ := newTestLibrary(t)

	token, u, err := l.Signup(domain.Signup{Username: "carol", Password: "pass1", FullName: "Carol"})
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)

	authed, err := l.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, authed.ID)

	_, _, err = l.Signup(domain.Signup{Username: "Carol", Password: "pass1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, _, err = l.Signup(domain.Signup{Username: "dave", Password: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLibrary_RevokeToken(t *testing.T) {
	l, _ := newTestLibrary(t)
	addUser(t, l, "erin")
	token, _, err := l.Login("erin", "secret")
	require.NoError(t, err)

	l.RevokeToken(token)

	_, err = l.Authenticate(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	fresh, _, err := l.Login("erin", "secret")
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)
}

func TestLibrary_Borrow(t *testing.T) {
	l, c := newTestLibrary(t)
	u := addUser(t, l, "alice")
	other := addUser(t, l, "bob")
	b := addBook(t, l, "Dune", 1)

	rec, err := l.Borrow(u, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", rec.BookTitle)
	assert.Equal(t, c.now().Add(domain.LoanPeriod), rec.DueDate)
	assert.True(t, rec.Active())

	got, err := l.Book(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopies)

	t.Run("already borrowed wins over unavailable", func(t *testing.T) {
		_, err := l.Borrow(u, b.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyBorrowed)
	})

	t.Run("no copies left", func(t *testing.T) {
		_, err := l.Borrow(other, b.ID)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})

	t.Run("unknown book", func(t *testing.T) {
		_, err := l.Borrow(u, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLibrary_Return(t *testing.T) {
	l, c := newTestLibrary(t)
	u := addUser(t, l, "alice")
	other := addUser(t, l, "bob")
	b := addBook(t, l, "Dune", 2)

	rec, err := l.Borrow(u, b.ID)
	require.NoError(t, err)

	t.Run("only the borrower can return", func(t *testing.T) {
		_, err := l.Return(other, rec.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	c.advance(domain.LoanPeriod + 3*24*time.Hour + time.Hour)

	receipt, err := l.Return(u, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(30), receipt.Fine)
	assert.Equal(t, "Returned Dune", receipt.Message)

	got, err := l.Book(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableCopies)

	notes := l.Notifications(u)
	require.Len(t, notes, 1)
	assert.Equal(t, "You were 3 days late returning 'Dune'. A fine of Rs.30.00 has been added.", notes[0].Message)

	_, err = l.Return(u, rec.ID)
	assert.ErrorIs(t, err, ErrAlreadyReturned)

	got, err = l.Book(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableCopies, "a second return must not add a copy")
}

func TestLibrary_ReturnOnTime(t *testing.T) {
	l, c := newTestLibrary(t)
	u := addUser(t, l, "alice")
	b := addBook(t, l, "Dune", 1)

	rec, err := l.Borrow(u, b.ID)
	require.NoError(t, err)
	c.advance(domain.LoanPeriod)

	receipt, err := l.Return(u, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(0), receipt.Fine)
	assert.Empty(t, l.Notifications(u))
}

func TestLibrary_BorrowingsNewestFirst(t *testing.T) {
	l, _ := newTestLibrary(t)
	u := addUser(t, l, "alice")
	first := addBook(t, l, "One", 1)
	second := addBook(t, l, "Two", 1)

	_, err := l.Borrow(u, first.ID)
	require.NoError(t, err)
	_, err = l.Borrow(u, second.ID)
	require.NoError(t, err)

	records := l.Borrowings(u)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].BookID)
	assert.Equal(t, "alice", records[0].Username)
}

func TestLibrary_AllBorrowingsFilter(t *testing.T) {
	l, c := newTestLibrary(t)
	u := addUser(t, l, "alice")
	returned := addBook(t, l, "Returned", 1)
	late := addBook(t, l, "Late", 1)

	r1, err := l.Borrow(u, returned.ID)
	require.NoError(t, err)
	_, err = l.Return(u, r1.ID)
	require.NoError(t, err)

	_, err = l.Borrow(u, late.ID)
	require.NoError(t, err)

	assert.Len(t, l.AllBorrowings(domain.FilterAll), 2)
	assert.Len(t, l.AllBorrowings(domain.FilterReturned), 1)
	assert.Len(t, l.AllBorrowings(domain.FilterUnreturned), 1)
	assert.Empty(t, l.AllBorrowings(domain.FilterOverdue))

	c.advance(domain.LoanPeriod + time.Minute)
	overdue := l.AllBorrowings(domain.FilterOverdue)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].BookID)
}

func TestLibrary_BorrowAction(t *testing.T) {
	l, _ := newTestLibrary(t)
	u := addUser(t, l, "alice")
	b := addBook(t, l, "Dune", 1)
	rec, err := l.Borrow(u, b.ID)
	require.NoError(t, err)

	t.Run("reminder", func(t *testing.T) {
		status, err := l.BorrowAction(domain.ActionReminder, rec.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "reminder sent", status)

		notes := l.Notifications(u)
		require.NotEmpty(t, notes)
		assert.Equal(t, "Reminder: Please return 'Dune' by Mar 13, 2024.", notes[0].Message)
	})

	t.Run("fine requires an amount", func(t *testing.T) {
		_, err := l.BorrowAction(domain.ActionFine, rec.ID, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("negative fine", func(t *testing.T) {
		neg := -1.0
		_, err := l.BorrowAction(domain.ActionFine, rec.ID, &neg)
		assert.ErrorIs(t, err, domain.ErrInvalidFine)
	})

	t.Run("fine", func(t *testing.T) {
		fine := 12.5
		_, err := l.BorrowAction(domain.ActionFine, rec.ID, &fine)
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(12.5), l.Borrowings(u)[0].Fine)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := l.BorrowAction("renew", rec.ID, nil)
		assert.ErrorIs(t, err, ErrInvalidAction)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := l.BorrowAction(domain.ActionReminder, 999, nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("return twice", func(t *testing.T) {
		_, err := l.BorrowAction(domain.ActionReturn, rec.ID, nil)
		require.NoError(t, err)
		_, err = l.BorrowAction(domain.ActionReturn, rec.ID, nil)
		assert.ErrorIs(t, err, ErrAlreadyReturned)
	})
}

func TestLibrary_Reviews(t *testing.T) {
	l, _ := newTestLibrary(t)
	u := addUser(t, l, "alice")
	other := addUser(t, l, "bob")
	b := addBook(t, l, "Dune", 1)

	r, err := l.CreateReview(u, domain.ReviewInput{BookID: b.ID, Rating: 4, Content: "good"})
	require.NoError(t, err)
	assert.Equal(t, "alice", r.UserName)

	t.Run("one review per user and book", func(t *testing.T) {
		_, err := l.CreateReview(u, domain.ReviewInput{BookID: b.ID, Rating: 5})
		assert.ErrorIs(t, err, domain.ErrDuplicateReview)
	})

	t.Run("rating out of range", func(t *testing.T) {
		for _, rating := range []int{0, 6} {
			_, err := l.CreateReview(other, domain.ReviewInput{BookID: b.ID, Rating: rating})
			assert.ErrorIs(t, err, domain.ErrInvalidRating)
		}
	})

	t.Run("unknown book", func(t *testing.T) {
		_, err := l.CreateReview(other, domain.ReviewInput{BookID: 999, Rating: 3})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("only the author can edit", func(t *testing.T) {
		_, err := l.UpdateReview(other, r.ID, domain.ReviewInput{Rating: 1})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, l.DeleteReview(other, r.ID), domain.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		updated, err := l.UpdateReview(u, r.ID, domain.ReviewInput{Rating: 2, Content: "meh"})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Rating)
		assert.Equal(t, "meh", updated.Content)
	})

	t.Run("filter", func(t *testing.T) {
		assert.Len(t, l.FilterReviews(domain.ReviewFilter{BookTitle: "dun"}), 1)
		assert.Empty(t, l.FilterReviews(domain.ReviewFilter{BookTitle: "dun", Rating: 5}))
		assert.Len(t, l.Reviews(b.ID), 1)
		assert.Len(t, l.Reviews(0), 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, l.DeleteReview(u, r.ID))
		assert.Empty(t, l.Reviews(b.ID))
		assert.ErrorIs(t, l.RemoveReview(r.ID), domain.ErrNotFound)
	})
}

func TestLibrary_UpdateBookCopies(t *testing.T) {
	l, _ := newTestLibrary(t)
	u := addUser(t, l, "alice")
	b := addBook(t, l, "Dune", 2)
	_, err := l.Borrow(u, b.ID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		total     int
		available int
		wantErr   error
	}{
		{"consistent", 2, 1, nil},
		{"more copies", 5, 4, nil},
		{"available plus borrowed over total", 2, 2, domain.ErrInvalidCopies},
		{"negative", -1, 0, domain.ErrInvalidCopies},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.UpdateBook(b.ID, domain.BookInput{
				Title:           "Dune",
				Author:          "Author",
				TotalCopies:     tt.total,
				AvailableCopies: tt.available,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, got.BorrowedCount)
		})
	}
}

func TestLibrary_Categories(t *testing.T) {
	l, _ := newTestLibrary(t)
	c, err := l.AddCategory("Fiction")
	require.NoError(t, err)
	empty, err := l.AddCategory("Empty")
	require.NoError(t, err)

	_, err = l.CreateBook(domain.BookInput{Title: "Dune", Author: "Herbert", CategoryID: c.ID, TotalCopies: 1, AvailableCopies: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, l.DeleteCategory(c.ID), domain.ErrCategoryInUse)
	assert.NoError(t, l.DeleteCategory(empty.ID))
	assert.ErrorIs(t, l.DeleteCategory(empty.ID), domain.ErrNotFound)

	renamed, err := l.RenameCategory(c.ID, "Novels")
	require.NoError(t, err)
	assert.Equal(t, "Novels", renamed.Name)

	_, err = l.CreateBook(domain.BookInput{Title: "X", Author: "Y", CategoryID: 999, TotalCopies: 1, AvailableCopies: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLibrary_DeleteBookCascades(t *testing.T) {
	l, _ := newTestLibrary(t)
	u := addUser(t, l, "alice")
	b := addBook(t, l, "Dune", 1)
	_, err := l.Borrow(u, b.ID)
	require.NoError(t, err)
	_, err = l.CreateReview(u, domain.ReviewInput{BookID: b.ID, Rating: 5})
	require.NoError(t, err)

	require.NoError(t, l.DeleteBook(b.ID))
	assert.Empty(t, l.Borrowings(u))
	assert.Empty(t, l.Reviews(0))
	assert.ErrorIs(t, l.DeleteBook(b.ID), domain.ErrNotFound)
}

func TestLibrary_SearchBooks(t *testing.T) {
	l, _ := newTestLibrary(t)
	_, err := l.CreateBook(domain.BookInput{Title: "Dune", Author: "Frank Herbert", TotalCopies: 1, AvailableCopies: 1})
	require.NoError(t, err)
	_, err = l.CreateBook(domain.BookInput{Title: "Emma", Author: "Jane Austen", TotalCopies: 1, AvailableCopies: 1})
	require.NoError(t, err)

	assert.Len(t, l.SearchBooks("herb"), 1)
	assert.Len(t, l.SearchBooks("AUSTEN"), 1)
	assert.Len(t, l.SearchBooks(""), 2)
	assert.Empty(t, l.SearchBooks("tolkien"))
}

func TestLibrary_MarkAllRead(t *testing.T) {
	l, _ := newTestLibrary(t)
	u := addUser(t, l, "alice")
	b := addBook(t, l, "Dune", 1)
	rec, err := l.Borrow(u, b.ID)
	require.NoError(t, err)
	_, err = l.BorrowAction(domain.ActionReminder, rec.ID, nil)
	require.NoError(t, err)

	l.MarkAllRead(u)
	for _, n := range l.Notifications(u) {
		assert.True(t, n.IsRead)
	}
}

func TestSeed(t *testing.T) {
	l, _ := newTestLibrary(t)
	require.NoError(t, Seed(l))

	d := l.Dashboard()
	assert.Equal(t, len(DefaultAccounts), d.UserCount)
	assert.Equal(t, 3, d.CategoryCount)
	assert.Equal(t, 8, d.BookCount)

	_, u, err := l.Login("admin", "admin123")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

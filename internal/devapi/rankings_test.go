package devapi

import (
	"testing"

	"library-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankings(t *testing.T) {
	l, c := newTestLibrary(t)
	alice := addUser(t, l, "alice")
	bob := addUser(t, l, "bob")

	popular := addBook(t, l, "Popular", 5)
	rated := addBook(t, l, "Rated", 5)
	addBook(t, l, "Ignored", 5)

	for _, u := range []*User{alice, bob} {
		rec, err := l.Borrow(u, popular.ID)
		require.NoError(t, err)
		_, err = l.Return(u, rec.ID)
		require.NoError(t, err)
	}
	_, err := l.Borrow(alice, rated.ID)
	require.NoError(t, err)

	_, err = l.CreateReview(alice, domain.ReviewInput{BookID: rated.ID, Rating: 5})
	require.NoError(t, err)
	_, err = l.CreateReview(bob, domain.ReviewInput{BookID: rated.ID, Rating: 4})
	require.NoError(t, err)
	_, err = l.CreateReview(alice, domain.ReviewInput{BookID: popular.ID, Rating: 2})
	require.NoError(t, err)

	t.Run("most popular", func(t *testing.T) {
		books := l.MostPopular()
		require.Len(t, books, 2)
		assert.Equal(t, popular.ID, books[0].ID)
		assert.Equal(t, 2, books[0].BorrowCount)
	})

	t.Run("top rated", func(t *testing.T) {
		books := l.TopRated()
		require.Len(t, books, 2)
		assert.Equal(t, rated.ID, books[0].ID)
		assert.Equal(t, 4.5, books[0].AverageRating)
	})

	t.Run("home stats", func(t *testing.T) {
		s := l.HomeStats()
		assert.Equal(t, 3, s.TotalBooks)
		assert.Equal(t, 3, s.TotalBorrowings)
		assert.Equal(t, 3.7, s.AverageRating)
	})

	t.Run("top by borrowings", func(t *testing.T) {
		r := l.TopByBorrowings(1)
		assert.Equal(t, "borrowings", r.Metric)
		require.Len(t, r.Books, 1)
		assert.Equal(t, "Popular by Author", r.Labels[0])
		assert.Equal(t, []float64{2}, r.Values)
		assert.Equal(t, 2, r.Total)
	})

	t.Run("top by ratings needs two reviews", func(t *testing.T) {
		r := l.TopByRatings(10)
		assert.Equal(t, "ratings", r.Metric)
		require.Len(t, r.Books, 1)
		assert.Equal(t, rated.ID, r.Books[0].ID)
		assert.Equal(t, 2, r.Books[0].ReviewCount)
		assert.Equal(t, 2, r.Total)
	})

	t.Run("borrowed per month", func(t *testing.T) {
		m := l.BorrowedPerMonth(c.now().Year())
		require.Len(t, m.Labels, 12)
		require.Len(t, m.Values, 12)
		assert.Equal(t, "Mar", m.Labels[2])
		assert.Equal(t, 3, m.Values[2])
		assert.Equal(t, 3, m.Total)
		assert.Equal(t, "Mar", m.PeakMonth)
		assert.Empty(t, m.Note)
	})

	t.Run("empty year", func(t *testing.T) {
		m := l.BorrowedPerMonth(1999)
		assert.Zero(t, m.Total)
		assert.Equal(t, "No borrowings recorded in 1999", m.Note)
	})
}

func TestTopRated_CapsAtSix(t *testing.T) {
	l, _ := newTestLibrary(t)
	u := addUser(t, l, "alice")
	for i := 0; i < 8; i++ {
		b := addBook(t, l, "Book", 1)
		_, err := l.CreateReview(u, domain.ReviewInput{BookID: b.ID, Rating: 3})
		require.NoError(t, err)
		_, err = l.Borrow(u, b.ID)
		require.NoError(t, err)
	}

	assert.Len(t, l.TopRated(), 6)
	assert.Len(t, l.MostPopular(), 6)
}

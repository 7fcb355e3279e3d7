package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"library-client/internal/domain"
	"library-client/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticCatalog(t *testing.T, books []*domain.Book, categories []*domain.Category) *testutil.MockLibraryAPI {
	t.Helper()
	api := testutil.NewMockLibraryAPI(testutil.NewTestLibrary(t))
	api.ListBooksFunc = func(ctx context.Context) ([]*domain.Book, error) {
		return books, nil
	}
	api.ListCategoriesFunc = func(ctx context.Context) ([]*domain.Category, error) {
		return categories, nil
	}
	return api
}

func TestCache_Load(t *testing.T) {
	t.Run("seeded library", func(t *testing.T) {
		api := testutil.NewMockLibraryAPI(testutil.NewSeededLibrary(t))
		c := NewCache(api)

		applied, err := c.Load(context.Background())
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Len(t, c.Books(), 8)
		assert.Len(t, c.Categories(), 3)
		assert.False(t, c.LoadedAt().IsZero())
		assert.Equal(t, 1, api.Calls("ListBooks"))
		assert.Equal(t, 1, api.Calls("ListCategories"))
	})

	t.Run("failure leaves cache untouched", func(t *testing.T) {
		book := testutil.NewTestBook()
		api := staticCatalog(t, []*domain.Book{book}, nil)
		c := NewCache(api)
		_, err := c.Load(context.Background())
		require.NoError(t, err)

		api.ListCategoriesFunc = func(ctx context.Context) ([]*domain.Category, error) {
			return nil, domain.ErrUnknown
		}
		applied, err := c.Load(context.Background())
		assert.ErrorIs(t, err, domain.ErrUnknown)
		assert.False(t, applied)
		assert.Len(t, c.Books(), 1)
	})

	t.Run("cancelled context", func(t *testing.T) {
		api := testutil.NewMockLibraryAPI(testutil.NewSeededLibrary(t))
		c := NewCache(api)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		applied, err := c.Load(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, applied)
		assert.Empty(t, c.Books())
	})
}

func TestCache_LoadDiscardsStaleResult(t *testing.T) {
	slow := []*domain.Book{testutil.NewTestBook(testutil.WithTitle("Old"))}
	fresh := []*domain.Book{testutil.NewTestBook(testutil.WithTitle("New"))}

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	api := staticCatalog(t, nil, nil)
	api.ListBooksFunc = func(ctx context.Context) ([]*domain.Book, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-release
			return slow, nil
		}
		return fresh, nil
	}
	c := NewCache(api)

	type result struct {
		applied bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		applied, err := c.Load(context.Background())
		done <- result{applied, err}
	}()

	<-started
	applied, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)

	close(release)
	r := <-done
	require.NoError(t, r.err)
	assert.False(t, r.applied)

	books := c.Books()
	require.Len(t, books, 1)
	assert.Equal(t, "New", books[0].Title)
}

func TestCache_BorrowDeltaInvalidatesInFlightLoad(t *testing.T) {
	book := testutil.NewTestBook(testutil.WithCopies(3, 3))
	api := staticCatalog(t, []*domain.Book{book}, nil)
	c := NewCache(api)
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	api.ListBooksFunc = func(ctx context.Context) ([]*domain.Book, error) {
		close(started)
		<-release
		return []*domain.Book{book}, nil
	}

	done := make(chan bool, 1)
	go func() {
		applied, _ := c.Load(context.Background())
		done <- applied
	}()

	<-started
	assert.True(t, c.ApplyBorrowDelta(book.ID, -1))
	close(release)

	assert.False(t, <-done)
	got, ok := c.Book(book.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.AvailableCopies)
}

func TestCache_ApplyBorrowDelta(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		available int
		delta     int
		want      int
	}{
		{name: "borrow", total: 3, available: 2, delta: -1, want: 1},
		{name: "return", total: 3, available: 2, delta: 1, want: 3},
		{name: "clamped at zero", total: 3, available: 0, delta: -1, want: 0},
		{name: "clamped at total", total: 3, available: 3, delta: 1, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := testutil.NewTestBook(testutil.WithCopies(tt.total, tt.available))
			c := NewCache(staticCatalog(t, []*domain.Book{book}, nil))
			_, err := c.Load(context.Background())
			require.NoError(t, err)

			assert.True(t, c.ApplyBorrowDelta(book.ID, tt.delta))

			got, ok := c.Book(book.ID)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.AvailableCopies)
			assert.Equal(t, tt.want, c.Books()[0].AvailableCopies)
		})
	}

	t.Run("unknown book", func(t *testing.T) {
		c := NewCache(staticCatalog(t, nil, nil))
		assert.False(t, c.ApplyBorrowDelta(42, -1))
	})
}

func TestCache_ReturnsCopies(t *testing.T) {
	book := testutil.NewTestBook(testutil.WithCopies(2, 2))
	c := NewCache(staticCatalog(t, []*domain.Book{book}, []*domain.Category{{ID: 1, Name: "Fiction"}}))
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	got, _ := c.Book(book.ID)
	got.AvailableCopies = 0
	c.Books()[0].Title = "changed"
	c.Categories()[0].Name = "changed"

	again, _ := c.Book(book.ID)
	assert.Equal(t, 2, again.AvailableCopies)
	assert.Equal(t, book.Title, c.Books()[0].Title)
	assert.Equal(t, "Fiction", c.CategoryName(1))
	assert.Empty(t, c.CategoryName(2))

	// Mutating what the API returned must not reach the cache either.
	book.AvailableCopies = 0
	again, _ = c.Book(book.ID)
	assert.Equal(t, 2, again.AvailableCopies)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	api := testutil.NewMockLibraryAPI(testutil.NewSeededLibrary(t))
	c := NewCache(api)
	_, err := c.Load(context.Background())
	require.NoError(t, err)
	id := c.Books()[0].ID

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = c.Load(context.Background())
		}()
		go func() {
			defer wg.Done()
			c.ApplyBorrowDelta(id, -1)
		}()
		go func() {
			defer wg.Done()
			_ = c.Filter(Query{Search: "the"})
		}()
	}
	wg.Wait()

	got, ok := c.Book(id)
	require.True(t, ok)
	assert.GreaterOrEqual(t, got.AvailableCopies, 0)
	assert.LessOrEqual(t, got.AvailableCopies, got.TotalCopies)
}

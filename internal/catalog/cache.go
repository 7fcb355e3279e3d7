// Package catalog caches the books and categories last fetched from the
// library API. The API stays authoritative: local adjustments are provisional
// and the next load replaces them.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"library-client/internal/domain"
	"library-client/internal/observability"
)

// Cache holds the catalog snapshot. It is safe for concurrent use.
//
// Every Load and every local adjustment takes a ticket from a monotonic
// sequence. A load is applied only if no newer ticket was issued while it was
// in flight, so a slow load cannot clobber fresher data.
type Cache struct {
	api domain.CatalogAPI
	now func() time.Time

	seq atomic.Uint64

	mu         sync.RWMutex
	books      []*domain.Book
	byID       map[int64]*domain.Book
	categories []*domain.Category
	loadedAt   time.Time
}

// NewCache creates an empty cache that loads through api.
func NewCache(api domain.CatalogAPI) *Cache {
	return &Cache{
		api:  api,
		now:  time.Now,
		byID: make(map[int64]*domain.Book),
	}
}

// Load fetches books and categories and replaces the cache wholesale. It
// reports false when the result was discarded because something newer
// happened meanwhile. On error the cache is unchanged.
func (c *Cache) Load(ctx context.Context) (bool, error) {
	ticket := c.seq.Add(1)
	log := observability.FromContext(ctx)

	books, err := c.api.ListBooks(ctx)
	if err != nil {
		observability.CatalogLoadsTotal.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("load books: %w", err)
	}
	categories, err := c.api.ListCategories(ctx)
	if err != nil {
		observability.CatalogLoadsTotal.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("load categories: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if latest := c.seq.Load(); latest != ticket {
		observability.CatalogLoadsTotal.WithLabelValues("stale").Inc()
		log.Info("discarding stale catalog load", slog.Uint64("load", ticket), slog.Uint64("latest", latest))
		return false, nil
	}

	c.books = make([]*domain.Book, 0, len(books))
	c.byID = make(map[int64]*domain.Book, len(books))
	for _, b := range books {
		if b == nil {
			continue
		}
		bb := *b
		c.books = append(c.books, &bb)
		c.byID[bb.ID] = &bb
	}
	c.categories = make([]*domain.Category, 0, len(categories))
	for _, cat := range categories {
		if cat == nil {
			continue
		}
		cc := *cat
		c.categories = append(c.categories, &cc)
	}
	c.loadedAt = c.now()

	observability.CatalogLoadsTotal.WithLabelValues("applied").Inc()
	observability.CatalogBooks.Set(float64(len(c.books)))
	log.Debug("catalog loaded", slog.Int("books", len(c.books)), slog.Int("categories", len(c.categories)))
	return true, nil
}

// ApplyBorrowDelta adjusts a book's available copies by delta, clamped to
// [0, TotalCopies]. It reports whether the book is cached.
func (c *Cache) ApplyBorrowDelta(bookID int64, delta int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.byID[bookID]
	if !ok {
		return false
	}
	c.seq.Add(1)

	available := b.AvailableCopies + delta
	if available < 0 {
		available = 0
	}
	if available > b.TotalCopies {
		available = b.TotalCopies
	}
	// Snapshots handed out earlier share nothing with the cache, so replace
	// rather than mutate in place.
	bb := *b
	bb.AvailableCopies = available
	c.byID[bookID] = &bb
	for i := range c.books {
		if c.books[i].ID == bookID {
			c.books[i] = &bb
		}
	}
	return true
}

// Book returns a copy of a cached book.
func (c *Cache) Book(id int64) (*domain.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	bb := *b
	return &bb, true
}

// Books returns copies of all cached books in API order.
func (c *Cache) Books() []*domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyBooks(c.books)
}

// Categories returns copies of all cached categories.
func (c *Cache) Categories() []*domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Category, len(c.categories))
	for i, cat := range c.categories {
		cc := *cat
		out[i] = &cc
	}
	return out
}

// CategoryName returns the name of a cached category, or "" if unknown.
func (c *Cache) CategoryName(id int64) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cat := range c.categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return ""
}

// LoadedAt is when the last applied load finished; zero before the first.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Filter returns copies of the cached books matching q.
func (c *Cache) Filter(q Query) []*domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Book, 0, len(c.books))
	for _, b := range c.books {
		if q.Match(b) {
			bb := *b
			out = append(out, &bb)
		}
	}
	return out
}

func copyBooks(books []*domain.Book) []*domain.Book {
	out := make([]*domain.Book, len(books))
	for i, b := range books {
		bb := *b
		out[i] = &bb
	}
	return out
}

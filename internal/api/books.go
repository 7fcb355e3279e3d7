package api

import (
	"context"
	"net/http"
	"net/url"

	"library-client/internal/domain"
)

// ListBooks returns the full catalog.
func (c *Client) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var books []*domain.Book
	if err := c.do(ctx, request{method: http.MethodGet, path: "books/", endpoint: "books"}, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// GetBook returns one book.
func (c *Client) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	var b domain.Book
	err := c.do(ctx, request{method: http.MethodGet, path: idPath("books/%d/", id), endpoint: "book"}, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SearchBooks runs the server-side title/author search.
func (c *Client) SearchBooks(ctx context.Context, q string) ([]*domain.Book, error) {
	var books []*domain.Book
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "search/",
		endpoint: "search",
		query:    url.Values{"search": {q}},
	}, &books)
	if err != nil {
		return nil, err
	}
	return books, nil
}

// BooksByCategory returns the books of one category.
func (c *Client) BooksByCategory(ctx context.Context, categoryID int64) ([]*domain.Book, error) {
	var books []*domain.Book
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     idPath("books/category/%d/", categoryID),
		endpoint: "books_by_category",
	}, &books)
	if err != nil {
		return nil, err
	}
	return books, nil
}

// ListCategories returns all categories.
func (c *Client) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	var cats []*domain.Category
	if err := c.do(ctx, request{method: http.MethodGet, path: "categories/", endpoint: "categories"}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// TopRated returns the best-rated books shown on the home page.
func (c *Client) TopRated(ctx context.Context) ([]*domain.RankedBook, error) {
	var books []*domain.RankedBook
	err := c.do(ctx, request{method: http.MethodGet, path: "books/top-rated/", endpoint: "top_rated"}, &books)
	if err != nil {
		return nil, err
	}
	return books, nil
}

// MostPopular returns the most borrowed books shown on the home page.
func (c *Client) MostPopular(ctx context.Context) ([]*domain.RankedBook, error) {
	var books []*domain.RankedBook
	err := c.do(ctx, request{method: http.MethodGet, path: "books/most-popular/", endpoint: "most_popular"}, &books)
	if err != nil {
		return nil, err
	}
	return books, nil
}

// HomeStats returns the catalog-wide counters.
func (c *Client) HomeStats(ctx context.Context) (*domain.HomeStats, error) {
	var s domain.HomeStats
	if err := c.do(ctx, request{method: http.MethodGet, path: "stats/", endpoint: "stats"}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"library-client/internal/domain"
)

// Dashboard returns the admin console counters.
func (c *Client) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	var d domain.Dashboard
	if err := c.do(ctx, request{method: http.MethodGet, path: "admin/dashboard/", endpoint: "admin_dashboard"}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// AdminListBooks returns every book including its active loan count.
func (c *Client) AdminListBooks(ctx context.Context) ([]*domain.Book, error) {
	var books []*domain.Book
	if err := c.do(ctx, request{method: http.MethodGet, path: "admin/books/", endpoint: "admin_books"}, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) AdminCreateBook(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
	var b domain.Book
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "admin/books/",
		endpoint: "admin_book_create",
		body:     in,
		scope:    scopeBookWrite,
	}, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) AdminUpdateBook(ctx context.Context, id int64, in domain.BookInput) (*domain.Book, error) {
	var b domain.Book
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     idPath("admin/books/%d/", id),
		endpoint: "admin_book_update",
		body:     in,
		scope:    scopeBookWrite,
	}, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) AdminDeleteBook(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("admin/books/%d/", id), endpoint: "admin_book_delete"}, nil)
}

func (c *Client) AdminListCategories(ctx context.Context) ([]*domain.Category, error) {
	var cats []*domain.Category
	if err := c.do(ctx, request{method: http.MethodGet, path: "admin/categories/", endpoint: "admin_categories"}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

type categoryBody struct {
	Name string `json:"name"`
}

func (c *Client) AdminCreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	var cat domain.Category
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "admin/categories/",
		endpoint: "admin_category_create",
		body:     categoryBody{Name: name},
	}, &cat)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) AdminUpdateCategory(ctx context.Context, id int64, name string) (*domain.Category, error) {
	var cat domain.Category
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     idPath("admin/categories/%d/", id),
		endpoint: "admin_category_update",
		body:     categoryBody{Name: name},
	}, &cat)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// AdminDeleteCategory deletes an empty category; categories that still hold
// books fail with domain.ErrCategoryInUse.
func (c *Client) AdminDeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     idPath("admin/categories/%d/", id),
		endpoint: "admin_category_delete",
		scope:    scopeCategoryDelete,
	}, nil)
}

// AdminListBorrowings lists all borrow records matching filter.
func (c *Client) AdminListBorrowings(ctx context.Context, filter domain.BorrowFilter) ([]*domain.BorrowRecord, error) {
	var q url.Values
	if filter != domain.FilterAll {
		q = url.Values{"status": {string(filter)}}
	}
	var records []*domain.BorrowRecord
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "admin/borrowings/",
		endpoint: "admin_borrowings",
		query:    q,
	}, &records)
	if err != nil {
		return nil, err
	}
	return records, nil
}

type borrowActionBody struct {
	Action     domain.BorrowAction `json:"action"`
	BorrowID   int64               `json:"borrow_id"`
	FineAmount *float64            `json:"fine_amount,omitempty"`
}

// AdminBorrowAction sends a reminder, sets a fine, or forces a return.
// fine is only sent with domain.ActionFine.
func (c *Client) AdminBorrowAction(ctx context.Context, action domain.BorrowAction, recordID int64, fine domain.Amount) error {
	body := borrowActionBody{Action: action, BorrowID: recordID}
	if action == domain.ActionFine {
		f := float64(fine)
		body.FineAmount = &f
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     "admin/borrowings/action/",
		endpoint: "admin_borrowing_action",
		body:     body,
		scope:    scopeBorrowAction,
	}, nil)
}

// AdminListReviews lists reviews filtered by book title substring and rating.
func (c *Client) AdminListReviews(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, error) {
	q := url.Values{}
	if filter.BookTitle != "" {
		q.Set("book", filter.BookTitle)
	}
	if filter.Rating != 0 {
		q.Set("rating", strconv.Itoa(filter.Rating))
	}
	var reviews []*domain.Review
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "admin/reviews/",
		endpoint: "admin_reviews",
		query:    q,
	}, &reviews)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (c *Client) AdminDeleteReview(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     idPath("admin/reviews/%d/delete/", id),
		endpoint: "admin_review_delete",
	}, nil)
}

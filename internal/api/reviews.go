package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"library-client/internal/domain"
)

// ListReviews returns the reviews of bookID, newest first.
func (c *Client) ListReviews(ctx context.Context, bookID int64) ([]*domain.Review, error) {
	var reviews []*domain.Review
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "reviews/",
		endpoint: "reviews",
		query:    url.Values{"book": {strconv.FormatInt(bookID, 10)}},
	}, &reviews)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// CreateReview posts a new review. A 400 means the user already reviewed the
// book and maps to domain.ErrDuplicateReview.
func (c *Client) CreateReview(ctx context.Context, in domain.ReviewInput) (*domain.Review, error) {
	var r domain.Review
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "reviews/",
		endpoint: "review_create",
		body:     in,
		scope:    scopeReviewCreate,
	}, &r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReview replaces the rating and content of review id.
func (c *Client) UpdateReview(ctx context.Context, id int64, in domain.ReviewInput) (*domain.Review, error) {
	var r domain.Review
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     idPath("reviews/%d/", id),
		endpoint: "review_update",
		body:     in,
	}, &r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReview removes one of the session user's reviews.
func (c *Client) DeleteReview(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     idPath("reviews/%d/delete/", id),
		endpoint: "review_delete",
	}, nil)
}

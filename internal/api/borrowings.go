package api

import (
	"context"
	"net/http"

	"library-client/internal/domain"
)

// Borrow asks the API to lend bookID to the session user. Business-rule
// rejections map to domain.ErrAlreadyBorrowed or domain.ErrUnavailable.
func (c *Client) Borrow(ctx context.Context, bookID int64) (*domain.BorrowReceipt, error) {
	var receipt domain.BorrowReceipt
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     idPath("borrow/%d/", bookID),
		endpoint: "borrow",
		scope:    scopeBorrow,
	}, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Return closes the loan recordID. The receipt carries the fine, if any.
func (c *Client) Return(ctx context.Context, recordID int64) (*domain.ReturnReceipt, error) {
	var receipt domain.ReturnReceipt
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     idPath("return/%d/", recordID),
		endpoint: "return",
	}, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// MyBorrowings lists the session user's borrow records, newest first.
func (c *Client) MyBorrowings(ctx context.Context) ([]*domain.BorrowRecord, error) {
	var records []*domain.BorrowRecord
	err := c.do(ctx, request{method: http.MethodGet, path: "user_borrowings/", endpoint: "user_borrowings"}, &records)
	if err != nil {
		return nil, err
	}
	return records, nil
}

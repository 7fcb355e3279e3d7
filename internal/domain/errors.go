package domain

import (
	"errors"
	"strings"
)

// Failure taxonomy shared by the session store, catalog cache and coordinator.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrUnauthorized    = errors.New("not authorized")
	ErrAlreadyBorrowed = errors.New("book already borrowed and not returned")
	ErrUnavailable     = errors.New("no copies available")
	ErrDuplicateReview = errors.New("book already reviewed")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrNotFound        = errors.New("not found")
	ErrUnknown         = errors.New("unknown error")
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCopies      = errors.New("invalid copy counts")
	ErrInvalidFine        = errors.New("fine cannot be negative")
	ErrCategoryInUse      = errors.New("category has associated books")
)

// IsAuthFailure reports whether err should end the current session.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrUnauthorized)
}

// Message returns the text a view shows for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return "You must be logged in to do that."
	case errors.Is(err, ErrUnauthorized):
		return "You do not have permission to do that."
	case errors.Is(err, ErrAlreadyBorrowed):
		return "You have already borrowed this book and not returned it yet."
	case errors.Is(err, ErrUnavailable):
		return "No copies available."
	case errors.Is(err, ErrDuplicateReview):
		return "You have already reviewed this book. You can only submit one review per book."
	case errors.Is(err, ErrInvalidRating):
		return "Please select a rating between 1 and 5 before submitting your review."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrInvalidCopies):
		return "Available + borrowed cannot exceed total copies, and copies cannot be negative."
	case errors.Is(err, ErrInvalidFine):
		return "Fine cannot be negative."
	case errors.Is(err, ErrCategoryInUse):
		return "Cannot delete category with associated books."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	}
	msg := err.Error()
	if msg == "" {
		return "Something went wrong. Please try again."
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

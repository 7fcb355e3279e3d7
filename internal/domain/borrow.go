package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// LoanPeriod is the default time between borrow and due date.
	LoanPeriod = 12 * 24 * time.Hour
	// FinePerDay is charged for every full day a loan is returned late.
	FinePerDay Amount = 10
)

// BorrowStatus is the lifecycle state of a borrow record.
type BorrowStatus string

const (
	StatusActive   BorrowStatus = "active"
	StatusOverdue  BorrowStatus = "overdue"
	StatusReturned BorrowStatus = "returned"
)

// BorrowRecord is a single loan of one book to one user.
// At most one record per (UserID, BookID) may be active at a time.
type BorrowRecord struct {
	ID         int64      `json:"id"`
	BookID     int64      `json:"book"`
	UserID     int64      `json:"user"`
	BookTitle  string     `json:"book_title,omitempty"`
	Username   string     `json:"username,omitempty"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	IsReturned bool       `json:"is_returned"`
	Fine       Amount     `json:"fine"`
}

// Active reports whether the loan is still outstanding.
func (r *BorrowRecord) Active() bool {
	return r.ReturnDate == nil && !r.IsReturned
}

// Overdue reports whether an active loan is past its due date at now.
func (r *BorrowRecord) Overdue(now time.Time) bool {
	return r.Active() && !r.DueDate.IsZero() && r.DueDate.Before(now)
}

// Status derives the record state at now.
func (r *BorrowRecord) Status(now time.Time) BorrowStatus {
	switch {
	case !r.Active():
		return StatusReturned
	case r.Overdue(now):
		return StatusOverdue
	default:
		return StatusActive
	}
}

// LateFine is the fine owed for returning a loan due at due on returned.
// Partial days are not charged.
func LateFine(due, returned time.Time) Amount {
	if due.IsZero() || !returned.After(due) {
		return 0
	}
	days := int(returned.Sub(due) / (24 * time.Hour))
	return FinePerDay * Amount(days)
}

// BorrowFilter selects admin borrowing listings.
type BorrowFilter string

const (
	FilterAll        BorrowFilter = ""
	FilterReturned   BorrowFilter = "returned"
	FilterUnreturned BorrowFilter = "unreturned"
	FilterOverdue    BorrowFilter = "overdue"
)

// BorrowReceipt is the server's answer to a borrow request. Record is absent
// when the server only reports a message.
type BorrowReceipt struct {
	Message string        `json:"message"`
	Record  *BorrowRecord `json:"record,omitempty"`
}

// ReturnReceipt is the server's answer to a return request.
type ReturnReceipt struct {
	Message    string     `json:"message"`
	Fine       Amount     `json:"fine"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// BorrowAction is an admin action against a borrow record.
type BorrowAction string

const (
	ActionReminder BorrowAction = "reminder"
	ActionFine     BorrowAction = "fine"
	ActionReturn   BorrowAction = "return"
)

// Amount is a non-negative money value. The API encodes decimals as strings,
// so both "12.50" and 12.5 are accepted.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}

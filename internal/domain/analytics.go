package domain

// MonthlyBorrowings is the per-month borrow count for one year.
type MonthlyBorrowings struct {
	Labels    []string `json:"labels"`
	Values    []int    `json:"values"`
	Total     int      `json:"total"`
	PeakMonth string   `json:"peak_month"`
	PeakCount int      `json:"peak_count"`
	Note      string   `json:"note,omitempty"`
}

// BookRanking is a top-N list of books by one metric.
type BookRanking struct {
	Metric string          `json:"metric"`
	Books  []RankedBookRow `json:"books"`
	Labels []string        `json:"labels"`
	Values []float64       `json:"values"`
	Total  int             `json:"-"`
}

// RankedBookRow is one row of a BookRanking.
type RankedBookRow struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	CoverImage  string  `json:"cover_image,omitempty"`
	BorrowCount int     `json:"borrow_count,omitempty"`
	AvgRating   float64 `json:"avg_rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
	Label       string  `json:"label"`
}

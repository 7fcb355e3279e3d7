package devapi

import (
	"fmt"
	"math"
	"sort"
	"time"

	"library-client/internal/domain"
)

const (
	homeRankingSize  = 6
	minRatingReviews = 2
)

type bookStats struct {
	book        *domain.Book
	borrows     int
	reviews     int
	ratingTotal int
}

func (s bookStats) avgRating() float64 {
	if s.reviews == 0 {
		return 0
	}
	return round1(float64(s.ratingTotal) / float64(s.reviews))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// stats must be called with the read lock held.
func (l *Library) stats() []bookStats {
	byBook := make(map[int64]*bookStats, len(l.books))
	for id, b := range l.books {
		byBook[id] = &bookStats{book: b}
	}
	for _, r := range l.records {
		if s, ok := byBook[r.BookID]; ok {
			s.borrows++
		}
	}
	for _, r := range l.reviews {
		if s, ok := byBook[r.BookID]; ok {
			s.reviews++
			s.ratingTotal += r.Rating
		}
	}

	out := make([]bookStats, 0, len(byBook))
	for _, s := range byBook {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].book.ID < out[j].book.ID })
	return out
}

func (l *Library) rankedBook(s bookStats) *domain.RankedBook {
	category := ""
	if c, ok := l.categories[s.book.CategoryID]; ok {
		category = c.Name
	}
	return &domain.RankedBook{
		ID:              s.book.ID,
		Title:           s.book.Title,
		Author:          s.book.Author,
		Category:        category,
		CoverImage:      s.book.CoverImage,
		AverageRating:   s.avgRating(),
		ReviewCount:     s.reviews,
		BorrowCount:     s.borrows,
		AvailableCopies: s.book.AvailableCopies,
	}
}

// TopRated returns reviewed books by average rating, then review count.
func (l *Library) TopRated() []*domain.RankedBook {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := l.stats()
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].avgRating() != stats[j].avgRating() {
			return stats[i].avgRating() > stats[j].avgRating()
		}
		return stats[i].reviews > stats[j].reviews
	})

	out := make([]*domain.RankedBook, 0, homeRankingSize)
	for _, s := range stats {
		if s.reviews == 0 || len(out) == homeRankingSize {
			continue
		}
		out = append(out, l.rankedBook(s))
	}
	return out
}

// MostPopular returns borrowed books by borrow count.
func (l *Library) MostPopular() []*domain.RankedBook {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := l.stats()
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].borrows > stats[j].borrows })

	out := make([]*domain.RankedBook, 0, homeRankingSize)
	for _, s := range stats {
		if s.borrows == 0 || len(out) == homeRankingSize {
			continue
		}
		out = append(out, l.rankedBook(s))
	}
	return out
}

func (l *Library) HomeStats() *domain.HomeStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for _, r := range l.reviews {
		total += r.Rating
	}
	avg := 0.0
	if len(l.reviews) > 0 {
		avg = round1(float64(total) / float64(len(l.reviews)))
	}
	return &domain.HomeStats{
		TotalBooks:      len(l.books),
		TotalCategories: len(l.categories),
		TotalBorrowings: len(l.records),
		AverageRating:   avg,
	}
}

// BorrowedPerMonth counts loans started in each month of year.
func (l *Library) BorrowedPerMonth(year int) *domain.MonthlyBorrowings {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m := &domain.MonthlyBorrowings{
		Labels: make([]string, 12),
		Values: make([]int, 12),
	}
	for i := range m.Labels {
		m.Labels[i] = time.Month(i + 1).String()[:3]
	}
	for _, r := range l.records {
		if r.BorrowDate.Year() == year {
			m.Values[r.BorrowDate.Month()-1]++
		}
	}
	for i, v := range m.Values {
		m.Total += v
		if v > m.PeakCount {
			m.PeakCount = v
			m.PeakMonth = m.Labels[i]
		}
	}
	if m.Total == 0 {
		m.Note = fmt.Sprintf("No borrowings recorded in %d", year)
	}
	return m
}

// TopByBorrowings ranks the limit most borrowed books.
func (l *Library) TopByBorrowings(limit int) *domain.BookRanking {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := l.stats()
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].borrows > stats[j].borrows })

	r := &domain.BookRanking{Metric: "borrowings", Books: []domain.RankedBookRow{}, Labels: []string{}, Values: []float64{}}
	for _, s := range stats {
		if s.borrows == 0 || len(r.Books) == limit {
			continue
		}
		row := rankingRow(s)
		row.BorrowCount = s.borrows
		r.Books = append(r.Books, row)
		r.Labels = append(r.Labels, row.Label)
		r.Values = append(r.Values, float64(s.borrows))
		r.Total += s.borrows
	}
	return r
}

// TopByRatings ranks the limit best rated books with at least two reviews.
func (l *Library) TopByRatings(limit int) *domain.BookRanking {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := l.stats()
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].avgRating() > stats[j].avgRating() })

	r := &domain.BookRanking{Metric: "ratings", Books: []domain.RankedBookRow{}, Labels: []string{}, Values: []float64{}}
	for _, s := range stats {
		if s.reviews < minRatingReviews || len(r.Books) == limit {
			continue
		}
		row := rankingRow(s)
		row.AvgRating = s.avgRating()
		row.ReviewCount = s.reviews
		r.Books = append(r.Books, row)
		r.Labels = append(r.Labels, row.Label)
		r.Values = append(r.Values, row.AvgRating)
		r.Total += s.reviews
	}
	return r
}

func rankingRow(s bookStats) domain.RankedBookRow {
	return domain.RankedBookRow{
		ID:         s.book.ID,
		Title:      s.book.Title,
		Author:     s.book.Author,
		CoverImage: s.book.CoverImage,
		Label:      s.book.Title + " by " + s.book.Author,
	}
}

package devapi

import (
	"fmt"

	"library-client/internal/domain"
)

// SeedAccount is a login created by Seed.
type SeedAccount struct {
	Username string
	Password string
	FullName string
	Admin    bool
}

// DefaultAccounts are the logins the development server starts with.
var DefaultAccounts = []SeedAccount{
	{Username: "admin", Password: "admin123", FullName: "Library Admin", Admin: true},
	{Username: "reader", Password: "reader123", FullName: "Avid Reader"},
}

var seedCatalog = map[string][]domain.BookInput{
	"Fiction": {
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", TotalCopies: 3, AvailableCopies: 3},
		{Title: "Beloved", Author: "Toni Morrison", TotalCopies: 2, AvailableCopies: 2},
		{Title: "Pale Fire", Author: "Vladimir Nabokov", TotalCopies: 1, AvailableCopies: 1},
	},
	"Science": {
		{Title: "The Selfish Gene", Author: "Richard Dawkins", TotalCopies: 2, AvailableCopies: 2},
		{Title: "A Brief History of Time", Author: "Stephen Hawking", TotalCopies: 4, AvailableCopies: 4},
	},
	"Computing": {
		{Title: "The Go Programming Language", Author: "Alan Donovan", TotalCopies: 5, AvailableCopies: 5},
		{Title: "Structure and Interpretation of Computer Programs", Author: "Harold Abelson", TotalCopies: 2, AvailableCopies: 2},
		{Title: "The Mythical Man-Month", Author: "Fred Brooks", TotalCopies: 1, AvailableCopies: 1},
	},
}

// Seed fills an empty library with DefaultAccounts and a small catalog.
func Seed(l *Library) error {
	for _, a := range DefaultAccounts {
		if _, err := l.AddUser(a.Username, a.Password, a.FullName, a.Admin); err != nil {
			return fmt.Errorf("seed user %s: %w", a.Username, err)
		}
	}

	for _, name := range []string{"Fiction", "Science", "Computing"} {
		c, err := l.AddCategory(name)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
		for _, in := range seedCatalog[name] {
			in.CategoryID = c.ID
			if _, err := l.CreateBook(in); err != nil {
				return fmt.Errorf("seed book %q: %w", in.Title, err)
			}
		}
	}
	return nil
}

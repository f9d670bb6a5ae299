package query

import (
	"strconv"

	"github.com/your-org/famtree/internal/apperr"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// sortColumns maps the public sort keys to member table columns.
var sortColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"dob":       "dob",
	"role":      "role",
}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Page is a validated pagination request. Page numbers start at zero.
type Page struct {
	Page      int
	Size      int
	SortField string
	SortOrder SortOrder
}

func DefaultPage() Page {
	return Page{Page: 0, Size: DefaultPageSize, SortField: "dob", SortOrder: Asc}
}

// ParsePage validates raw query values; empty values take defaults.
func ParsePage(page, size, sortField, sortOrder string) (Page, error) {
	p := DefaultPage()

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 0 {
			return Page{}, apperr.Validation("page", "must be an integer >= 0")
		}
		p.Page = n
	}
	if size != "" {
		n, err := strconv.Atoi(size)
		if err != nil || n < 1 || n > MaxPageSize {
			return Page{}, apperr.Validation("size", "must be an integer between 1 and %d", MaxPageSize)
		}
		p.Size = n
	}
	if sortField != "" {
		if _, ok := sortColumns[sortField]; !ok {
			return Page{}, apperr.Validation("sortField", "must be one of firstName, lastName, dob, role")
		}
		p.SortField = sortField
	}
	if sortOrder != "" {
		switch SortOrder(sortOrder) {
		case Asc, Desc:
			p.SortOrder = SortOrder(sortOrder)
		default:
			return Page{}, apperr.Validation("sortOrder", "must be asc or desc")
		}
	}
	return p, nil
}

func (p Page) Offset() int {
	return p.Page * p.Size
}

// SortColumn is the table column for SortField.
func (p Page) SortColumn() string {
	if c, ok := sortColumns[p.SortField]; ok {
		return c
	}
	return "dob"
}

func (p Page) Descending() bool {
	return p.SortOrder == Desc
}

// Result is the paged response envelope.
type Result struct {
	Data  []map[string]any `json:"data"`
	Total int              `json:"total"`
}

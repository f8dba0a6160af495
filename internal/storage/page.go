package storage

import (
	"math"

	"github.com/doug-martin/goqu/v9"
)

// Page selects a window of an ordered result set.
type Page struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// Apply restricts ds to the page. A zero Limit leaves the result unbounded.
func (p Page) Apply(ds *goqu.SelectDataset) *goqu.SelectDataset {
	switch {
	case p.Limit > 0:
		ds = ds.Limit(uint(p.Limit))
	case p.Skip > 0:
		// SQLite only accepts OFFSET after a LIMIT clause.
		ds = ds.Limit(uint(math.MaxInt64))
	}
	if p.Skip > 0 {
		ds = ds.Offset(uint(p.Skip))
	}
	return ds
}

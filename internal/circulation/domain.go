package circulation

import "time"

// Record is one borrow of a book by a member. A nil ReturnDate marks the
// borrow as open.
type Record struct {
	ID         int64      `json:"id" db:"id"`
	MemberID   int64      `json:"member_id" db:"member_id"`
	ISBN       string     `json:"isbn" db:"isbn"`
	BorrowDate time.Time  `json:"borrow_date" db:"borrow_date"`
	ReturnDate *time.Time `json:"return_date" db:"return_date"`
}

// Open reports whether the book has not been returned yet.
func (r Record) Open() bool {
	return r.ReturnDate == nil
}

// HistoryFilter selects the records of one member or one book.
type HistoryFilter struct {
	MemberID   int64
	ISBN       string
	ActiveOnly bool
}

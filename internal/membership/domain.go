package membership

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Member represents a library member.
type Member struct {
	ID       int64     `db:"id"`
	Name     string    `db:"name"`
	JoinDate time.Time `db:"join_date"`
}

type memberJSON struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	JoinDate string `json:"join_date"`
}

// MarshalJSON renders the join date as a calendar date.
func (m Member) MarshalJSON() ([]byte, error) {
	return json.Marshal(memberJSON{ID: m.ID, Name: m.Name, JoinDate: m.JoinDate.UTC().Format(dateLayout)})
}

func (m *Member) UnmarshalJSON(data []byte) error {
	var raw memberJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	joined, err := time.Parse(dateLayout, raw.JoinDate)
	if err != nil {
		return fmt.Errorf("invalid join_date %q: %w", raw.JoinDate, err)
	}
	*m = Member{ID: raw.ID, Name: raw.Name, JoinDate: joined}
	return nil
}

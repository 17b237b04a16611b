package domain

import "time"

// AuditFields holds the timestamps kept on every persisted entity.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DateLayout is the calendar-date layout used for transaction and line item dates.
const DateLayout = "2006-01-02"

// TruncateToDate drops the clock part of t and pins it to UTC.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

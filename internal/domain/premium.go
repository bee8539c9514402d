package domain

import "time"

// Premium is a user's premium entitlement record.
// A nil ExpiredAt means the user is an insider with unlimited premium.
type Premium struct {
	UserID    string
	ExpiredAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the entitlement grants premium at now.
func (p *Premium) IsActive(now time.Time) bool {
	if p == nil {
		return false
	}
	if p.ExpiredAt == nil {
		return true
	}
	return now.Before(*p.ExpiredAt)
}

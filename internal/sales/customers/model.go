package customers

import "time"

// Customer references its price tier by code; the tier is owned by the
// pricing module.
type Customer struct {
	ID               int64     `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	Country          string    `json:"country"`
	AssignedTierCode string    `json:"assigned_tier_code"`
	IsActive         bool      `json:"is_active"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

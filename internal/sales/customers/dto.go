package customers

type CreateCustomerRequest struct {
	Code             string  `json:"code" validate:"required"`
	Name             string  `json:"name" validate:"required"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string `json:"phone,omitempty"`
	Country          string  `json:"country"`
	AssignedTierCode string  `json:"assigned_tier_code" validate:"required"`
	Notes            *string `json:"notes,omitempty"`
}

type UpdateCustomerRequest struct {
	Name             string  `json:"name" validate:"required"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string `json:"phone,omitempty"`
	Country          string  `json:"country"`
	AssignedTierCode string  `json:"assigned_tier_code" validate:"required"`
	IsActive         bool    `json:"is_active"`
	Notes            *string `json:"notes,omitempty"`
}

type ListCustomersResponse struct {
	Customers []Customer `json:"customers"`
	Total     int        `json:"total"`
}

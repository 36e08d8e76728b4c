package products

// Money fields travel as decimal strings so callers never touch floats.
type CreateProductRequest struct {
	Code       string  `json:"code" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Unit       string  `json:"unit" validate:"required"`
	BasePrice  string  `json:"base_price" validate:"required"`
	PriceListA *string `json:"price_list_a,omitempty"`
	PriceListB *string `json:"price_list_b,omitempty"`
	PriceListC *string `json:"price_list_c,omitempty"`
	PriceListD *string `json:"price_list_d,omitempty"`
}

type UpdateProductRequest struct {
	Code       string  `json:"code" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Unit       string  `json:"unit" validate:"required"`
	BasePrice  string  `json:"base_price" validate:"required"`
	PriceListA *string `json:"price_list_a,omitempty"`
	PriceListB *string `json:"price_list_b,omitempty"`
	PriceListC *string `json:"price_list_c,omitempty"`
	PriceListD *string `json:"price_list_d,omitempty"`
	IsActive   bool    `json:"is_active"`
}

type ListProductsResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

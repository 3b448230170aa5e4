package models

import "time"

// TransactionType is a transaction a property is listed under
type TransactionType string

const (
	TransactionTypeRent TransactionType = "RENT"
	TransactionTypeSale TransactionType = "SALE"
)

// PropertyStatus constants. Only AVAILABLE properties participate in matching.
const (
	PropertyStatusAvailable = "AVAILABLE"
	PropertyStatusRented    = "RENTED"
	PropertyStatusSold      = "SOLD"
	PropertyStatusInactive  = "INACTIVE"
)

// Property is a listing owned by exactly one user.
// available_for and amenities are persisted in their legacy serialized string
// form and decoded by pkg/normalize.
type Property struct {
	ID                 string    `json:"id" db:"id"`
	UserID             string    `json:"user_id" db:"user_id"`
	Title              string    `json:"title" db:"title"`
	PropertyType       string    `json:"property_type" db:"property_type"`
	Bedrooms           int       `json:"bedrooms" db:"bedrooms"`
	Bathrooms          int       `json:"bathrooms" db:"bathrooms"`
	AreaM2             float64   `json:"area_m2" db:"area_m2"`
	RentPriceCents     *int64    `json:"rent_price_cents,omitempty" db:"rent_price_cents"`
	SalePriceCents     *int64    `json:"sale_price_cents,omitempty" db:"sale_price_cents"`
	AvailableFor       string    `json:"available_for" db:"available_for"`
	Amenities          string    `json:"amenities" db:"amenities"`
	City               string    `json:"city" db:"city"`
	State              string    `json:"state" db:"state"`
	AcceptsPartnership bool      `json:"accepts_partnership" db:"accepts_partnership"`
	Status             string    `json:"status" db:"status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// CreatePropertyRequest is the request to create a property
type CreatePropertyRequest struct {
	Title              string   `json:"title" validate:"required"`
	PropertyType       string   `json:"property_type" validate:"required"`
	Bedrooms           int      `json:"bedrooms" validate:"min=0"`
	Bathrooms          int      `json:"bathrooms" validate:"min=0"`
	AreaM2             float64  `json:"area_m2" validate:"min=0"`
	RentPriceCents     *int64   `json:"rent_price_cents,omitempty" validate:"omitempty,min=0"`
	SalePriceCents     *int64   `json:"sale_price_cents,omitempty" validate:"omitempty,min=0"`
	AvailableFor       []string `json:"available_for" validate:"required,min=1,dive,oneof=RENT SALE"`
	Amenities          []string `json:"amenities,omitempty"`
	City               string   `json:"city" validate:"required"`
	State              string   `json:"state" validate:"required"`
	AcceptsPartnership bool     `json:"accepts_partnership"`
}

// UpdatePropertyRequest is the request to update a property
type UpdatePropertyRequest struct {
	Title              *string  `json:"title,omitempty"`
	PropertyType       *string  `json:"property_type,omitempty"`
	Bedrooms           *int     `json:"bedrooms,omitempty" validate:"omitempty,min=0"`
	Bathrooms          *int     `json:"bathrooms,omitempty" validate:"omitempty,min=0"`
	AreaM2             *float64 `json:"area_m2,omitempty" validate:"omitempty,min=0"`
	RentPriceCents     *int64   `json:"rent_price_cents,omitempty" validate:"omitempty,min=0"`
	SalePriceCents     *int64   `json:"sale_price_cents,omitempty" validate:"omitempty,min=0"`
	AvailableFor       []string `json:"available_for,omitempty" validate:"omitempty,min=1,dive,oneof=RENT SALE"`
	Amenities          []string `json:"amenities,omitempty"`
	City               *string  `json:"city,omitempty"`
	State              *string  `json:"state,omitempty"`
	AcceptsPartnership *bool    `json:"accepts_partnership,omitempty"`
	Status             *string  `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE RENTED SOLD INACTIVE"`
}

// PropertyResponse wraps a single property
type PropertyResponse struct {
	Property Property `json:"property"`
}

// PropertyListResponse is a paginated list of properties
type PropertyListResponse struct {
	Items      []Property `json:"items"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

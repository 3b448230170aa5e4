package models

import "time"

// LeadInterest defines what the lead is looking for
type LeadInterest string

const (
	LeadInterestRent LeadInterest = "RENT"
	LeadInterestBuy  LeadInterest = "BUY"
)

// LeadStatus constants. Only ACTIVE leads participate in matching.
const (
	LeadStatusActive    = "ACTIVE"
	LeadStatusConverted = "CONVERTED"
	LeadStatusInactive  = "INACTIVE"
	LeadStatusArchived  = "ARCHIVED"
)

// Lead is a stored search intent owned by exactly one user.
// List-valued fields (preferred_cities, preferred_states) are persisted in
// their legacy serialized string form and decoded by pkg/normalize.
type Lead struct {
	ID                string       `json:"id" db:"id"`
	UserID            string       `json:"user_id" db:"user_id"`
	Name              string       `json:"name" db:"name"`
	Interest          LeadInterest `json:"interest" db:"interest"`
	PropertyType      string       `json:"property_type" db:"property_type"`
	MinPriceCents     *int64       `json:"min_price_cents,omitempty" db:"min_price_cents"`
	MaxPriceCents     *int64       `json:"max_price_cents,omitempty" db:"max_price_cents"`
	MinBedrooms       *int         `json:"min_bedrooms,omitempty" db:"min_bedrooms"`
	MaxBedrooms       *int         `json:"max_bedrooms,omitempty" db:"max_bedrooms"`
	MinBathrooms      *int         `json:"min_bathrooms,omitempty" db:"min_bathrooms"`
	MaxBathrooms      *int         `json:"max_bathrooms,omitempty" db:"max_bathrooms"`
	MinAreaM2         *float64     `json:"min_area_m2,omitempty" db:"min_area_m2"`
	MaxAreaM2         *float64     `json:"max_area_m2,omitempty" db:"max_area_m2"`
	PreferredCities   string       `json:"preferred_cities" db:"preferred_cities"`
	PreferredStates   string       `json:"preferred_states" db:"preferred_states"`
	Status            string       `json:"status" db:"status"`
	MatchedPropertyID *string      `json:"matched_property_id,omitempty" db:"matched_property_id"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

// CreateLeadRequest is the request to create a lead
type CreateLeadRequest struct {
	Name            string       `json:"name" validate:"required"`
	Interest        LeadInterest `json:"interest" validate:"required,oneof=RENT BUY"`
	PropertyType    string       `json:"property_type" validate:"required"`
	MinPriceCents   *int64       `json:"min_price_cents,omitempty" validate:"omitempty,min=0"`
	MaxPriceCents   *int64       `json:"max_price_cents,omitempty" validate:"omitempty,min=0"`
	MinBedrooms     *int         `json:"min_bedrooms,omitempty" validate:"omitempty,min=0"`
	MaxBedrooms     *int         `json:"max_bedrooms,omitempty" validate:"omitempty,min=0"`
	MinBathrooms    *int         `json:"min_bathrooms,omitempty" validate:"omitempty,min=0"`
	MaxBathrooms    *int         `json:"max_bathrooms,omitempty" validate:"omitempty,min=0"`
	MinAreaM2       *float64     `json:"min_area_m2,omitempty" validate:"omitempty,min=0"`
	MaxAreaM2       *float64     `json:"max_area_m2,omitempty" validate:"omitempty,min=0"`
	PreferredCities []string     `json:"preferred_cities,omitempty"`
	PreferredStates []string     `json:"preferred_states,omitempty"`
}

// UpdateLeadRequest is the request to update a lead
type UpdateLeadRequest struct {
	Name            *string       `json:"name,omitempty"`
	Interest        *LeadInterest `json:"interest,omitempty" validate:"omitempty,oneof=RENT BUY"`
	PropertyType    *string       `json:"property_type,omitempty"`
	MinPriceCents   *int64        `json:"min_price_cents,omitempty" validate:"omitempty,min=0"`
	MaxPriceCents   *int64        `json:"max_price_cents,omitempty" validate:"omitempty,min=0"`
	MinBedrooms     *int          `json:"min_bedrooms,omitempty" validate:"omitempty,min=0"`
	MaxBedrooms     *int          `json:"max_bedrooms,omitempty" validate:"omitempty,min=0"`
	MinBathrooms    *int          `json:"min_bathrooms,omitempty" validate:"omitempty,min=0"`
	MaxBathrooms    *int          `json:"max_bathrooms,omitempty" validate:"omitempty,min=0"`
	MinAreaM2       *float64      `json:"min_area_m2,omitempty" validate:"omitempty,min=0"`
	MaxAreaM2       *float64      `json:"max_area_m2,omitempty" validate:"omitempty,min=0"`
	PreferredCities []string      `json:"preferred_cities,omitempty"`
	PreferredStates []string      `json:"preferred_states,omitempty"`
	Status          *string       `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE CONVERTED INACTIVE ARCHIVED"`
}

// LeadResponse wraps a single lead
type LeadResponse struct {
	Lead Lead `json:"lead"`
}

// LeadListResponse is a paginated list of leads
type LeadListResponse struct {
	Items      []Lead `json:"items"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

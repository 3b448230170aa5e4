package matching

import (
	"strings"

	"github.com/imobmatch/imobmatch/pkg/models"
	"github.com/imobmatch/imobmatch/pkg/normalize"
)

// LeadCriteria is a lead's search intent with its serialized list fields
// decoded into typed sets, ready for predicate evaluation.
type LeadCriteria struct {
	LeadID          string
	UserID          string
	Interest        models.LeadInterest
	PropertyType    string
	MinPriceCents   *int64
	MaxPriceCents   *int64
	MinBedrooms     *int
	MaxBedrooms     *int
	MinBathrooms    *int
	MaxBathrooms    *int
	MinAreaM2       *float64
	MaxAreaM2       *float64
	PreferredCities map[string]struct{}
	PreferredStates map[string]struct{}
}

// PropertyAttrs is a property's concrete attributes with its serialized list
// fields decoded, ready for predicate evaluation.
type PropertyAttrs struct {
	PropertyID         string
	UserID             string
	Title              string
	PropertyType       string
	Bedrooms           int
	Bathrooms          int
	AreaM2             float64
	RentPriceCents     *int64
	SalePriceCents     *int64
	AvailableFor       map[models.TransactionType]struct{}
	City               string
	State              string
	AcceptsPartnership bool
	Status             string
}

// NewLeadCriteria normalizes a stored lead. Malformed list encodings decode
// to empty sets and are reported in warnings; they never fail the build.
func NewLeadCriteria(lead *models.Lead) (LeadCriteria, []string) {
	var warnings []string

	cities, ok := normalize.StringList(lead.PreferredCities)
	if !ok {
		warnings = append(warnings, "preferred_cities")
	}
	states, ok := normalize.StringList(lead.PreferredStates)
	if !ok {
		warnings = append(warnings, "preferred_states")
	}

	return LeadCriteria{
		LeadID:          lead.ID,
		UserID:          lead.UserID,
		Interest:        lead.Interest,
		PropertyType:    lead.PropertyType,
		MinPriceCents:   lead.MinPriceCents,
		MaxPriceCents:   lead.MaxPriceCents,
		MinBedrooms:     lead.MinBedrooms,
		MaxBedrooms:     lead.MaxBedrooms,
		MinBathrooms:    lead.MinBathrooms,
		MaxBathrooms:    lead.MaxBathrooms,
		MinAreaM2:       lead.MinAreaM2,
		MaxAreaM2:       lead.MaxAreaM2,
		PreferredCities: normalize.LowerSet(cities),
		PreferredStates: normalize.LowerSet(states),
	}, warnings
}

// NewPropertyAttrs normalizes a stored property. Malformed list encodings
// decode to empty sets and are reported in warnings; they never fail the
// build. A property with an undecodable available_for set matches nothing.
func NewPropertyAttrs(property *models.Property) (PropertyAttrs, []string) {
	var warnings []string

	availableFor, ok := normalize.StringList(property.AvailableFor)
	if !ok {
		warnings = append(warnings, "available_for")
	}

	transactions := make(map[models.TransactionType]struct{}, len(availableFor))
	for _, v := range availableFor {
		transactions[models.TransactionType(strings.ToUpper(strings.TrimSpace(v)))] = struct{}{}
	}

	return PropertyAttrs{
		PropertyID:         property.ID,
		UserID:             property.UserID,
		Title:              property.Title,
		PropertyType:       property.PropertyType,
		Bedrooms:           property.Bedrooms,
		Bathrooms:          property.Bathrooms,
		AreaM2:             property.AreaM2,
		RentPriceCents:     property.RentPriceCents,
		SalePriceCents:     property.SalePriceCents,
		AvailableFor:       transactions,
		City:               strings.ToLower(strings.TrimSpace(property.City)),
		State:              strings.ToLower(strings.TrimSpace(property.State)),
		AcceptsPartnership: property.AcceptsPartnership,
		Status:             property.Status,
	}, warnings
}

// RelevantPriceCents returns the property price that applies to the lead's
// interest: rent price for RENT, sale price for BUY. Nil when the property
// has no price for that transaction.
func (p PropertyAttrs) RelevantPriceCents(interest models.LeadInterest) *int64 {
	switch interest {
	case models.LeadInterestRent:
		return p.RentPriceCents
	case models.LeadInterestBuy:
		return p.SalePriceCents
	}
	return nil
}

package matching

import "github.com/imobmatch/imobmatch/pkg/models"

// Matches reports whether a property satisfies a lead's criteria. It is pure
// and deterministic: no reads, no writes, no clock.
//
// Property type equality is a cheap pre-filter applied by the candidate
// queries and is not re-checked here.
func Matches(property PropertyAttrs, lead LeadCriteria) bool {
	if !interestCompatible(property, lead.Interest) {
		return false
	}

	if !priceWithinBounds(property, lead) {
		return false
	}

	if !boundsSatisfiedInt(property.Bedrooms, lead.MinBedrooms, lead.MaxBedrooms) {
		return false
	}
	if !boundsSatisfiedInt(property.Bathrooms, lead.MinBathrooms, lead.MaxBathrooms) {
		return false
	}
	if !boundsSatisfiedFloat(property.AreaM2, lead.MinAreaM2, lead.MaxAreaM2) {
		return false
	}

	return locationAcceptable(property, lead)
}

func interestCompatible(property PropertyAttrs, interest models.LeadInterest) bool {
	switch interest {
	case models.LeadInterestRent:
		_, ok := property.AvailableFor[models.TransactionTypeRent]
		return ok
	case models.LeadInterestBuy:
		_, ok := property.AvailableFor[models.TransactionTypeSale]
		return ok
	}
	return false
}

// priceWithinBounds enforces the canonical price rule: the relevant price
// must be present, and must fall inside whichever of the lead's min/max
// bounds are set. Bounds are inclusive.
func priceWithinBounds(property PropertyAttrs, lead LeadCriteria) bool {
	price := property.RelevantPriceCents(lead.Interest)
	if price == nil {
		return false
	}
	if lead.MaxPriceCents != nil && *price > *lead.MaxPriceCents {
		return false
	}
	if lead.MinPriceCents != nil && *price < *lead.MinPriceCents {
		return false
	}
	return true
}

func boundsSatisfiedInt(value int, min, max *int) bool {
	if min != nil && value < *min {
		return false
	}
	if max != nil && value > *max {
		return false
	}
	return true
}

func boundsSatisfiedFloat(value float64, min, max *float64) bool {
	if min != nil && value < *min {
		return false
	}
	if max != nil && value > *max {
		return false
	}
	return true
}

// locationAcceptable passes when the lead has no location preference at all,
// or when the property's city is among the preferred cities, or its state is
// among the preferred states. All comparisons are case-insensitive.
func locationAcceptable(property PropertyAttrs, lead LeadCriteria) bool {
	if len(lead.PreferredCities) == 0 && len(lead.PreferredStates) == 0 {
		return true
	}

	if _, ok := lead.PreferredCities[property.City]; ok {
		return true
	}
	if _, ok := lead.PreferredStates[property.State]; ok {
		return true
	}
	return false
}

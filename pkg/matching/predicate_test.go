package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobmatch/imobmatch/pkg/models"
)

func int64Ptr(v int64) *int64       { return &v }
func intPtr(v int) *int             { return &v }
func float64Ptr(v float64) *float64 { return &v }

func rentLead(overrides func(*models.Lead)) *models.Lead {
	lead := &models.Lead{
		ID:              "lead-1",
		UserID:          "user-a",
		Name:            "Maria",
		Interest:        models.LeadInterestRent,
		PropertyType:    "APARTMENT",
		MaxPriceCents:   int64Ptr(200000),
		PreferredCities: `["SP"]`,
		Status:          models.LeadStatusActive,
	}
	if overrides != nil {
		overrides(lead)
	}
	return lead
}

func rentProperty(overrides func(*models.Property)) *models.Property {
	property := &models.Property{
		ID:             "prop-1",
		UserID:         "user-a",
		Title:          "Downtown apartment",
		PropertyType:   "APARTMENT",
		Bedrooms:       2,
		Bathrooms:      1,
		AreaM2:         70,
		RentPriceCents: int64Ptr(180000),
		AvailableFor:   `["RENT"]`,
		City:           "SP",
		State:          "SP",
		Status:         models.PropertyStatusAvailable,
	}
	if overrides != nil {
		overrides(property)
	}
	return property
}

func evaluate(t *testing.T, lead *models.Lead, property *models.Property) bool {
	t.Helper()
	criteria, warnings := NewLeadCriteria(lead)
	require.Empty(t, warnings)
	attrs, warnings := NewPropertyAttrs(property)
	require.Empty(t, warnings)
	return Matches(attrs, criteria)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		lead     func(*models.Lead)
		property func(*models.Property)
		expected bool
	}{
		{
			name:     "rent lead matches rent listing",
			expected: true,
		},
		{
			name: "rent lead does not match sale-only listing",
			property: func(p *models.Property) {
				p.AvailableFor = `["SALE"]`
				p.SalePriceCents = int64Ptr(50000000)
			},
			expected: false,
		},
		{
			name: "buy lead matches sale listing",
			lead: func(l *models.Lead) {
				l.Interest = models.LeadInterestBuy
				l.MaxPriceCents = int64Ptr(60000000)
			},
			property: func(p *models.Property) {
				p.AvailableFor = `["SALE"]`
				p.SalePriceCents = int64Ptr(50000000)
			},
			expected: true,
		},
		{
			name: "listing available for both serves a buy lead",
			lead: func(l *models.Lead) {
				l.Interest = models.LeadInterestBuy
				l.MaxPriceCents = int64Ptr(60000000)
			},
			property: func(p *models.Property) {
				p.AvailableFor = `["RENT", "SALE"]`
				p.SalePriceCents = int64Ptr(50000000)
			},
			expected: true,
		},
		{
			name: "missing relevant price disqualifies",
			property: func(p *models.Property) {
				p.RentPriceCents = nil
			},
			expected: false,
		},
		{
			name: "missing relevant price disqualifies even without price bounds",
			lead: func(l *models.Lead) {
				l.MinPriceCents = nil
				l.MaxPriceCents = nil
			},
			property: func(p *models.Property) {
				p.RentPriceCents = nil
			},
			expected: false,
		},
		{
			name: "price exactly at max matches",
			property: func(p *models.Property) {
				p.RentPriceCents = int64Ptr(200000)
			},
			expected: true,
		},
		{
			name: "one cent above max does not match",
			property: func(p *models.Property) {
				p.RentPriceCents = int64Ptr(200001)
			},
			expected: false,
		},
		{
			name: "price exactly at min matches",
			lead: func(l *models.Lead) {
				l.MinPriceCents = int64Ptr(180000)
			},
			expected: true,
		},
		{
			name: "one cent below min does not match",
			lead: func(l *models.Lead) {
				l.MinPriceCents = int64Ptr(180001)
			},
			expected: false,
		},
		{
			name: "bedrooms above max does not match",
			lead: func(l *models.Lead) {
				l.MaxBedrooms = intPtr(2)
			},
			property: func(p *models.Property) {
				p.Bedrooms = 3
			},
			expected: false,
		},
		{
			name: "bedrooms below min does not match",
			lead: func(l *models.Lead) {
				l.MinBedrooms = intPtr(3)
			},
			expected: false,
		},
		{
			name: "bathrooms within bounds matches",
			lead: func(l *models.Lead) {
				l.MinBathrooms = intPtr(1)
				l.MaxBathrooms = intPtr(2)
			},
			expected: true,
		},
		{
			name: "area below min does not match",
			lead: func(l *models.Lead) {
				l.MinAreaM2 = float64Ptr(80)
			},
			expected: false,
		},
		{
			name: "area above max does not match",
			lead: func(l *models.Lead) {
				l.MaxAreaM2 = float64Ptr(60)
			},
			expected: false,
		},
		{
			name: "unset bounds impose nothing",
			lead: func(l *models.Lead) {
				l.MaxPriceCents = nil
				l.PreferredCities = ""
			},
			expected: true,
		},
		{
			name: "empty cities and states match any location",
			lead: func(l *models.Lead) {
				l.PreferredCities = ""
				l.PreferredStates = ""
			},
			property: func(p *models.Property) {
				p.City = "Manaus"
				p.State = "AM"
			},
			expected: true,
		},
		{
			name: "city match is case-insensitive",
			lead: func(l *models.Lead) {
				l.PreferredCities = `["são paulo"]`
			},
			property: func(p *models.Property) {
				p.City = "SÃO PAULO"
			},
			expected: true,
		},
		{
			name: "state fallback when city not preferred",
			lead: func(l *models.Lead) {
				l.PreferredCities = `["Campinas"]`
				l.PreferredStates = `["SP"]`
			},
			property: func(p *models.Property) {
				p.City = "Santos"
				p.State = "SP"
			},
			expected: true,
		},
		{
			name: "neither city nor state preferred does not match",
			lead: func(l *models.Lead) {
				l.PreferredCities = `["Campinas"]`
				l.PreferredStates = `["RJ"]`
			},
			property: func(p *models.Property) {
				p.City = "Santos"
				p.State = "SP"
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := rentLead(tt.lead)
			property := rentProperty(tt.property)
			assert.Equal(t, tt.expected, evaluate(t, lead, property))
		})
	}
}

func TestMatchesIsDeterministic(t *testing.T) {
	lead := rentLead(nil)
	property := rentProperty(nil)

	criteria, _ := NewLeadCriteria(lead)
	attrs, _ := NewPropertyAttrs(property)

	first := Matches(attrs, criteria)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Matches(attrs, criteria))
	}
}

func TestNewLeadCriteriaMalformedListsFailSoft(t *testing.T) {
	lead := rentLead(func(l *models.Lead) {
		l.PreferredCities = `["SP"`
		l.PreferredStates = `["RJ"`
	})

	criteria, warnings := NewLeadCriteria(lead)
	assert.ElementsMatch(t, []string{"preferred_cities", "preferred_states"}, warnings)
	assert.Empty(t, criteria.PreferredCities)
	assert.Empty(t, criteria.PreferredStates)

	// empty location sets impose no constraint
	attrs, _ := NewPropertyAttrs(rentProperty(nil))
	assert.True(t, Matches(attrs, criteria))
}

func TestNewPropertyAttrsMalformedAvailableForMatchesNothing(t *testing.T) {
	property := rentProperty(func(p *models.Property) {
		p.AvailableFor = `[RENT]`
	})

	attrs, warnings := NewPropertyAttrs(property)
	assert.Equal(t, []string{"available_for"}, warnings)
	assert.Empty(t, attrs.AvailableFor)

	criteria, _ := NewLeadCriteria(rentLead(nil))
	assert.False(t, Matches(attrs, criteria))
}

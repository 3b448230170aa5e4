package matching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobmatch/imobmatch/pkg/models"
)

type fakeLeadRepo struct {
	leads   map[string]*models.Lead
	matched map[string]string
}

func newFakeLeadRepo(leads ...*models.Lead) *fakeLeadRepo {
	repo := &fakeLeadRepo{leads: map[string]*models.Lead{}, matched: map[string]string{}}
	for _, l := range leads {
		repo.leads[l.ID] = l
	}
	return repo
}

func (r *fakeLeadRepo) Get(_ context.Context, id string) (*models.Lead, error) {
	lead, ok := r.leads[id]
	if !ok {
		return nil, fmt.Errorf("lead %s not found", id)
	}
	return lead, nil
}

func (r *fakeLeadRepo) ListActiveCandidates(_ context.Context, propertyType string, interests []models.LeadInterest, _ int) ([]models.Lead, error) {
	var result []models.Lead
	for _, lead := range r.leads {
		if lead.Status != models.LeadStatusActive || lead.PropertyType != propertyType {
			continue
		}
		for _, interest := range interests {
			if lead.Interest == interest {
				result = append(result, *lead)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeLeadRepo) SetMatchedProperty(_ context.Context, leadID string, propertyID string) error {
	r.matched[leadID] = propertyID
	return nil
}

type fakePropertyRepo struct {
	properties map[string]*models.Property
}

func newFakePropertyRepo(properties ...*models.Property) *fakePropertyRepo {
	repo := &fakePropertyRepo{properties: map[string]*models.Property{}}
	for _, p := range properties {
		repo.properties[p.ID] = p
	}
	return repo
}

func (r *fakePropertyRepo) Get(_ context.Context, id string) (*models.Property, error) {
	property, ok := r.properties[id]
	if !ok {
		return nil, fmt.Errorf("property %s not found", id)
	}
	return property, nil
}

func (r *fakePropertyRepo) ListAvailableByOwner(_ context.Context, ownerID string, propertyType string, _ int) ([]models.Property, error) {
	var result []models.Property
	for _, p := range r.properties {
		if p.Status == models.PropertyStatusAvailable && p.UserID == ownerID && p.PropertyType == propertyType {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakePropertyRepo) ListAvailablePartnership(_ context.Context, propertyType string, excludeOwnerID string, _ int) ([]models.Property, error) {
	var result []models.Property
	for _, p := range r.properties {
		if p.Status == models.PropertyStatusAvailable && p.AcceptsPartnership && p.UserID != excludeOwnerID && p.PropertyType == propertyType {
			result = append(result, *p)
		}
	}
	return result, nil
}

type fakeLeadNotificationRepo struct {
	rows []*models.LeadNotification
}

func (r *fakeLeadNotificationRepo) Create(_ context.Context, notification *models.LeadNotification, window time.Duration) (bool, error) {
	now := time.Now().UTC()
	for _, existing := range r.rows {
		if existing.LeadID == notification.LeadID && existing.PropertyID == notification.PropertyID && now.Sub(existing.CreatedAt) < window {
			return false, nil
		}
	}
	notification.ID = uuid.New().String()
	notification.CreatedAt = now
	r.rows = append(r.rows, notification)
	return true, nil
}

type fakePartnershipNotificationRepo struct {
	rows      []*models.PartnershipNotification
	createErr error
}

func (r *fakePartnershipNotificationRepo) ExistsSince(_ context.Context, fromUserID, toUserID, leadID, propertyID string, since time.Time) (bool, error) {
	for _, existing := range r.rows {
		if existing.FromUserID == fromUserID && existing.ToUserID == toUserID &&
			existing.LeadID == leadID && existing.PropertyID == propertyID &&
			existing.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePartnershipNotificationRepo) Create(_ context.Context, notification *models.PartnershipNotification, window time.Duration) (bool, error) {
	if r.createErr != nil {
		return false, r.createErr
	}
	now := time.Now().UTC()
	for _, existing := range r.rows {
		if existing.FromUserID == notification.FromUserID && existing.ToUserID == notification.ToUserID &&
			existing.LeadID == notification.LeadID && existing.PropertyID == notification.PropertyID &&
			now.Sub(existing.CreatedAt) < window {
			return false, nil
		}
	}
	notification.ID = uuid.New().String()
	notification.CreatedAt = now
	r.rows = append(r.rows, notification)
	return true, nil
}

type fakeContactRepo struct {
	users      map[string]*models.User
	phones     map[string]*string
	failUserID string
}

func (r *fakeContactRepo) GetUser(_ context.Context, id string) (*models.User, error) {
	if id == r.failUserID {
		return nil, fmt.Errorf("user lookup failed")
	}
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return user, nil
}

func (r *fakeContactRepo) ResolvePhone(_ context.Context, userID string) (*string, error) {
	if userID == r.failUserID {
		return nil, fmt.Errorf("phone lookup failed")
	}
	return r.phones[userID], nil
}

type fakeEmitter struct {
	leadMatched         int
	partnershipNotified int
}

func (e *fakeEmitter) EmitLeadMatched(_ context.Context, _ *models.LeadNotification) error {
	e.leadMatched++
	return nil
}

func (e *fakeEmitter) EmitPartnershipNotified(_ context.Context, _ *models.PartnershipNotification) error {
	e.partnershipNotified++
	return nil
}

type engineFixture struct {
	engine            *Engine
	leads             *fakeLeadRepo
	properties        *fakePropertyRepo
	leadNotifs        *fakeLeadNotificationRepo
	partnershipNotifs *fakePartnershipNotificationRepo
	contacts          *fakeContactRepo
	emitter           *fakeEmitter
}

func newEngineFixture(leads []*models.Lead, properties []*models.Property) *engineFixture {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	phoneA := "+55 11 99999-0001"
	contacts := &fakeContactRepo{
		users: map[string]*models.User{
			"user-a": {ID: "user-a", Name: "Ana Souza", Email: "ana@example.com"},
			"user-b": {ID: "user-b", Name: "Bruno Lima", Email: "bruno@example.com"},
		},
		phones: map[string]*string{
			"user-a": &phoneA,
		},
	}

	f := &engineFixture{
		leads:             newFakeLeadRepo(leads...),
		properties:        newFakePropertyRepo(properties...),
		leadNotifs:        &fakeLeadNotificationRepo{},
		partnershipNotifs: &fakePartnershipNotificationRepo{},
		contacts:          contacts,
		emitter:           &fakeEmitter{},
	}

	f.engine = NewEngine(
		f.leads,
		f.properties,
		f.leadNotifs,
		f.partnershipNotifs,
		f.contacts,
		f.emitter,
		logger,
		Config{DedupWindow: 24 * time.Hour, CandidateLimit: 100},
	)

	return f
}

func TestSelfMatchCreatesNotificationAndBackLink(t *testing.T) {
	lead := rentLead(nil) // user-a, RENT, APARTMENT, max 2000.00, cities ["SP"]
	property := rentProperty(nil)
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SelfMatches)
	assert.Equal(t, 0, summary.PartnershipMatches)
	require.Len(t, f.leadNotifs.rows, 1)
	assert.Equal(t, lead.ID, f.leadNotifs.rows[0].LeadID)
	assert.Equal(t, property.ID, f.leadNotifs.rows[0].PropertyID)
	assert.False(t, f.leadNotifs.rows[0].Sent)
	assert.Equal(t, property.ID, f.leads.matched[lead.ID])
	assert.Equal(t, 1, f.emitter.leadMatched)
	assert.Empty(t, f.partnershipNotifs.rows)
}

func TestPartnershipMatchCreatesDenormalizedNotification(t *testing.T) {
	lead := rentLead(nil)
	property := rentProperty(func(p *models.Property) {
		p.UserID = "user-b"
		p.AcceptsPartnership = true
	})
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PartnershipMatches)
	assert.Equal(t, 0, summary.SelfMatches)
	require.Len(t, f.partnershipNotifs.rows, 1)

	row := f.partnershipNotifs.rows[0]
	assert.Equal(t, "user-a", row.FromUserID)
	assert.Equal(t, "user-b", row.ToUserID)
	assert.Equal(t, "Ana Souza", row.FromUserName)
	require.NotNil(t, row.FromUserPhone)
	assert.Equal(t, "+55 11 99999-0001", *row.FromUserPhone)
	require.NotNil(t, row.FromUserEmail)
	assert.Equal(t, "ana@example.com", *row.FromUserEmail)
	assert.Equal(t, "Downtown apartment", row.PropertyTitle)
	require.NotNil(t, row.TargetPriceCents)
	assert.Equal(t, int64(200000), *row.TargetPriceCents)
	assert.Equal(t, models.MatchTypeRent, row.MatchType)
	assert.False(t, row.Sent)

	// the back-link is a self-match effect only
	assert.Empty(t, f.leads.matched)
	assert.Empty(t, f.leadNotifs.rows)
	assert.Equal(t, 1, f.emitter.partnershipNotified)
}

func TestRepeatWithinWindowIsSuppressed(t *testing.T) {
	lead := rentLead(nil)
	property := rentProperty(func(p *models.Property) {
		p.UserID = "user-b"
		p.AcceptsPartnership = true
	})
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	_, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.PartnershipMatches)
	assert.Equal(t, 1, summary.Suppressed)
	assert.Len(t, f.partnershipNotifs.rows, 1)
}

func TestBothTriggerPathsDiscoverSamePairOnce(t *testing.T) {
	lead := rentLead(nil)
	property := rentProperty(func(p *models.Property) {
		p.UserID = "user-b"
		p.AcceptsPartnership = true
	})
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	_, err := f.engine.OnLeadChanged(context.Background(), lead.ID)
	require.NoError(t, err)

	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Suppressed)
	assert.Len(t, f.partnershipNotifs.rows, 1)
}

func TestNonPartnershipCrossUserPropertyNeverMatches(t *testing.T) {
	lead := rentLead(nil)
	property := rentProperty(func(p *models.Property) {
		p.UserID = "user-b"
		p.AcceptsPartnership = false
	})
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.SelfMatches)
	assert.Equal(t, 0, summary.PartnershipMatches)
	assert.Empty(t, f.leadNotifs.rows)
	assert.Empty(t, f.partnershipNotifs.rows)
}

func TestBedroomBoundDisqualifies(t *testing.T) {
	lead := rentLead(func(l *models.Lead) {
		l.MaxBedrooms = intPtr(2)
	})
	property := rentProperty(func(p *models.Property) {
		p.Bedrooms = 3
	})
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.CandidatesEvaluated)
	assert.Empty(t, f.leadNotifs.rows)
	assert.Empty(t, f.partnershipNotifs.rows)
}

func TestSelfMatchReRunIsIdempotent(t *testing.T) {
	lead := rentLead(nil)
	property := rentProperty(nil)
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	_, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)
	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.SelfMatches)
	assert.Equal(t, 1, summary.Suppressed)
	assert.Len(t, f.leadNotifs.rows, 1)
	assert.Equal(t, property.ID, f.leads.matched[lead.ID])
}

func TestOnLeadChangedEvaluatesSelfAndPartnershipCandidates(t *testing.T) {
	lead := rentLead(nil)
	own := rentProperty(nil)
	partner := rentProperty(func(p *models.Property) {
		p.ID = "prop-2"
		p.Title = "Partner apartment"
		p.UserID = "user-b"
		p.AcceptsPartnership = true
	})
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{own, partner})

	summary, err := f.engine.OnLeadChanged(context.Background(), lead.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.CandidatesEvaluated)
	assert.Equal(t, 1, summary.SelfMatches)
	assert.Equal(t, 1, summary.PartnershipMatches)
	assert.Len(t, f.leadNotifs.rows, 1)
	assert.Len(t, f.partnershipNotifs.rows, 1)
	assert.Equal(t, own.ID, f.leads.matched[lead.ID])
}

func TestInactiveLeadSkipsMatching(t *testing.T) {
	lead := rentLead(func(l *models.Lead) {
		l.Status = models.LeadStatusArchived
	})
	property := rentProperty(nil)
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	summary, err := f.engine.OnLeadChanged(context.Background(), lead.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.CandidatesEvaluated)
	assert.Empty(t, f.leadNotifs.rows)
}

func TestUnavailablePropertySkipsMatching(t *testing.T) {
	lead := rentLead(nil)
	property := rentProperty(func(p *models.Property) {
		p.Status = models.PropertyStatusRented
	})
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.CandidatesEvaluated)
	assert.Empty(t, f.leadNotifs.rows)
}

func TestPerCandidateFailureDoesNotAbortPass(t *testing.T) {
	good := rentLead(nil)
	bad := rentLead(func(l *models.Lead) {
		l.ID = "lead-2"
		l.UserID = "user-c" // contact lookups fail for this user
	})
	property := rentProperty(func(p *models.Property) {
		p.UserID = "user-b"
		p.AcceptsPartnership = true
	})
	f := newEngineFixture([]*models.Lead{good, bad}, []*models.Property{property})
	f.contacts.failUserID = "user-c"

	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.CandidatesEvaluated)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 1, summary.PartnershipMatches)
	require.Len(t, f.partnershipNotifs.rows, 1)
	assert.Equal(t, good.ID, f.partnershipNotifs.rows[0].LeadID)
}

func TestMissingPhoneResolvesToNil(t *testing.T) {
	lead := rentLead(func(l *models.Lead) {
		l.UserID = "user-b" // user-b has no phone in the fixture
	})
	property := rentProperty(func(p *models.Property) {
		p.UserID = "user-a"
		p.AcceptsPartnership = true
	})
	f := newEngineFixture([]*models.Lead{lead}, []*models.Property{property})

	summary, err := f.engine.OnLeadChanged(context.Background(), lead.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PartnershipMatches)
	require.Len(t, f.partnershipNotifs.rows, 1)
	assert.Nil(t, f.partnershipNotifs.rows[0].FromUserPhone)
}

func TestPassLevelErrorWhenTriggerEntityUnreadable(t *testing.T) {
	f := newEngineFixture(nil, nil)

	_, err := f.engine.OnPropertyChanged(context.Background(), "missing")
	assert.Error(t, err)

	_, err = f.engine.OnLeadChanged(context.Background(), "missing")
	assert.Error(t, err)
}

func TestMalformedListFieldDoesNotAbortPass(t *testing.T) {
	broken := rentLead(func(l *models.Lead) {
		l.ID = "lead-broken"
		l.PreferredCities = `["SP"` // decodes to empty, so it matches anywhere
	})
	property := rentProperty(nil)
	f := newEngineFixture([]*models.Lead{broken}, []*models.Property{property})

	summary, err := f.engine.OnPropertyChanged(context.Background(), property.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Failures)
	assert.Equal(t, 1, summary.SelfMatches)
}

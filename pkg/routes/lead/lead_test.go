package lead

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctxutil "github.com/imobmatch/imobmatch/pkg/context"
	"github.com/imobmatch/imobmatch/pkg/matching"
	"github.com/imobmatch/imobmatch/pkg/middleware"
	"github.com/imobmatch/imobmatch/pkg/models"
)

type fakeRepo struct {
	leads   map[string]*models.Lead
	created int
}

func (f *fakeRepo) Create(_ context.Context, userID string, req models.CreateLeadRequest) (*models.Lead, error) {
	f.created++
	lead := &models.Lead{
		ID:           fmt.Sprintf("lead-%d", f.created),
		UserID:       userID,
		Name:         req.Name,
		Interest:     req.Interest,
		PropertyType: req.PropertyType,
		Status:       models.LeadStatusActive,
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*models.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "lead not found")
	}
	return lead, nil
}

func (f *fakeRepo) List(_ context.Context, userID string, _, _ int) ([]models.Lead, int, error) {
	var items []models.Lead
	for _, lead := range f.leads {
		if lead.UserID == userID {
			items = append(items, *lead)
		}
	}
	return items, len(items), nil
}

func (f *fakeRepo) Update(_ context.Context, userID string, id string, req models.UpdateLeadRequest) (*models.Lead, error) {
	lead, ok := f.leads[id]
	if !ok || lead.UserID != userID {
		return nil, nil
	}
	if req.Name != nil {
		lead.Name = *req.Name
	}
	return lead, nil
}

type fakeMatcher struct {
	calls []string
	err   error
}

func (f *fakeMatcher) OnLeadChanged(_ context.Context, leadID string) (*matching.MatchSummary, error) {
	f.calls = append(f.calls, leadID)
	return &matching.MatchSummary{}, f.err
}

func newTestHandler() (*Handler, *fakeRepo, *fakeMatcher) {
	repo := &fakeRepo{leads: map[string]*models.Lead{}}
	matcher := &fakeMatcher{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewHandler(repo, matcher, logger), repo, matcher
}

func doRequest(h echo.HandlerFunc, method, target, body, userID string, params map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req = req.WithContext(ctxutil.SetUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for name, value := range params {
		c.SetParamNames(name)
		c.SetParamValues(value)
	}

	if err := h(c); err != nil {
		errorHandler := middleware.Error(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
		errorHandler(err, c)
	}
	return rec
}

func TestCreateTriggersMatchingPass(t *testing.T) {
	handler, repo, matcher := newTestHandler()

	body := `{"name":"Maria","interest":"RENT","property_type":"APARTMENT","max_price_cents":250000}`
	rec := doRequest(handler.Create, http.MethodPost, "/api/v1/leads", body, "user-a", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, repo.created)
	require.Len(t, matcher.calls, 1)
	assert.Equal(t, "lead-1", matcher.calls[0])

	var resp models.LeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user-a", resp.Lead.UserID)
	assert.Equal(t, models.LeadStatusActive, resp.Lead.Status)
}

func TestCreateRequiresUser(t *testing.T) {
	handler, repo, matcher := newTestHandler()

	body := `{"name":"Maria","interest":"RENT","property_type":"APARTMENT"}`
	rec := doRequest(handler.Create, http.MethodPost, "/api/v1/leads", body, "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, repo.created)
	assert.Empty(t, matcher.calls)
}

func TestCreateRejectsInvalidInterest(t *testing.T) {
	handler, repo, _ := newTestHandler()

	body := `{"name":"Maria","interest":"LEASE","property_type":"APARTMENT"}`
	rec := doRequest(handler.Create, http.MethodPost, "/api/v1/leads", body, "user-a", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, repo.created)
}

func TestCreateSucceedsWhenMatchingFails(t *testing.T) {
	handler, repo, matcher := newTestHandler()
	matcher.err = fmt.Errorf("candidate query failed")

	body := `{"name":"Maria","interest":"BUY","property_type":"HOUSE"}`
	rec := doRequest(handler.Create, http.MethodPost, "/api/v1/leads", body, "user-a", nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, repo.created)
	require.Len(t, matcher.calls, 1)
}

func TestGetHidesOtherUsersLeads(t *testing.T) {
	handler, repo, _ := newTestHandler()
	repo.leads["lead-1"] = &models.Lead{ID: "lead-1", UserID: "user-b", Status: models.LeadStatusActive}

	rec := doRequest(handler.Get, http.MethodGet, "/api/v1/leads/lead-1", "", "user-a", map[string]string{"id": "lead-1"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTriggersMatchingPass(t *testing.T) {
	handler, repo, matcher := newTestHandler()
	repo.leads["lead-1"] = &models.Lead{ID: "lead-1", UserID: "user-a", Status: models.LeadStatusActive}

	body := `{"name":"Maria Silva"}`
	rec := doRequest(handler.Update, http.MethodPut, "/api/v1/leads/lead-1", body, "user-a", map[string]string{"id": "lead-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Maria Silva", repo.leads["lead-1"].Name)
	require.Len(t, matcher.calls, 1)
}

func TestUpdateUnknownLeadReturnsNotFound(t *testing.T) {
	handler, _, matcher := newTestHandler()

	body := `{"name":"Maria Silva"}`
	rec := doRequest(handler.Update, http.MethodPut, "/api/v1/leads/missing", body, "user-a", map[string]string{"id": "missing"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, matcher.calls)
}

package contacts

import (
	"context"
	"fmt"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobmatch/imobmatch/pkg/models"
)

type fakeUserReader struct {
	users     map[string]*models.User
	companies map[string]*models.Company
}

func (r *fakeUserReader) Get(_ context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return user, nil
}

func (r *fakeUserReader) GetCompany(_ context.Context, id string) (*models.Company, error) {
	company, ok := r.companies[id]
	if !ok {
		return nil, fmt.Errorf("company %s not found", id)
	}
	return company, nil
}

func strPtr(v string) *string { return &v }

func TestResolvePhone(t *testing.T) {
	reader := &fakeUserReader{
		users: map[string]*models.User{
			"with-phone":          {ID: "with-phone", Phone: strPtr("+55 11 90000-0001")},
			"company-fallback":    {ID: "company-fallback", CompanyID: strPtr("co-1")},
			"empty-phone":         {ID: "empty-phone", Phone: strPtr(""), CompanyID: strPtr("co-1")},
			"no-phone-no-company": {ID: "no-phone-no-company"},
			"phoneless-company":   {ID: "phoneless-company", CompanyID: strPtr("co-2")},
		},
		companies: map[string]*models.Company{
			"co-1": {ID: "co-1", Phone: strPtr("+55 11 3000-0000")},
			"co-2": {ID: "co-2"},
		},
	}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	resolver := NewResolver(reader, logger)

	tests := []struct {
		name     string
		userID   string
		expected *string
	}{
		{name: "user phone wins", userID: "with-phone", expected: strPtr("+55 11 90000-0001")},
		{name: "falls back to company phone", userID: "company-fallback", expected: strPtr("+55 11 3000-0000")},
		{name: "empty user phone falls back", userID: "empty-phone", expected: strPtr("+55 11 3000-0000")},
		{name: "no phone and no company is nil", userID: "no-phone-no-company", expected: nil},
		{name: "company without phone is nil", userID: "phoneless-company", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phone, err := resolver.ResolvePhone(context.Background(), tt.userID)
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Nil(t, phone)
			} else {
				require.NotNil(t, phone)
				assert.Equal(t, *tt.expected, *phone)
			}
		})
	}
}

func TestResolvePhoneUnknownUser(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	resolver := NewResolver(&fakeUserReader{users: map[string]*models.User{}}, logger)

	_, err := resolver.ResolvePhone(context.Background(), "missing")
	assert.Error(t, err)
}

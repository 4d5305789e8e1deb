package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

func TestCreateRequestReturnsAdvisoryConflict(t *testing.T) {
	api := newTestAPI()
	api.requests.createResult = &dto.VacationRequestResult{
		Request:  &models.VacationRequest{ID: "r1", Status: models.RequestStatusPending},
		Conflict: &models.ConflictReport{DepartmentID: "d1", Limit: 2, Count: 2, ExceedsLimit: true},
	}

	rec := do(api.router, http.MethodPost, "/api/v1/requests", "hr",
		`{"periodId":"0b6c2b8e-0000-4000-8000-000000000d03","type":"GOZO","startDate":"2025-11-03","endDate":"2025-11-17","days":15}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, string(decode(t, rec).Data), `"exceeds_limit":true`)
	assert.Equal(t, models.RequestTypeLeave, api.requests.lastCreate.Type)
	assert.Equal(t, 15, api.requests.lastCreate.Days)
	require.NotNil(t, api.requests.lastActor)
	assert.Equal(t, "u-hr", api.requests.lastActor.UserID)
}

func TestCreateRequestMalformedBody(t *testing.T) {
	api := newTestAPI()
	rec := do(api.router, http.MethodPost, "/api/v1/requests", "hr", `{"days":"quinze"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not pending", appErrors.Clone(appErrors.ErrInvalidState, "request is not pending"), http.StatusConflict, appErrors.CodeInvalidState},
		{"balance exhausted", appErrors.Clone(appErrors.ErrRuleViolation, "insufficient balance"), http.StatusUnprocessableEntity, appErrors.CodeValidation},
		{"missing", appErrors.Clone(appErrors.ErrNotFound, "vacation request not found"), http.StatusNotFound, appErrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI()
			api.requests.err = tc.err
			rec := do(api.router, http.MethodPost, "/api/v1/requests/r1/approve", "manager", "")
			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestRejectPassesReason(t *testing.T) {
	api := newTestAPI()
	rec := do(api.router, http.MethodPost, "/api/v1/requests/r1/reject", "manager", `{"reason":"equipe desfalcada"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "equipe desfalcada", api.requests.lastReject.Reason)
}

func TestListRequestsParsesFilters(t *testing.T) {
	api := newTestAPI()

	rec := do(api.router, http.MethodGet, "/api/v1/requests?status=aprovado&type=GOZO&from=2025-01-01&to=2025-01-31&page=2&limit=5", "manager", "")
	require.Equal(t, http.StatusOK, rec.Code)

	filter := api.requests.lastFilter
	require.NotNil(t, filter.Status)
	assert.Equal(t, models.RequestStatusApproved, *filter.Status)
	require.NotNil(t, filter.Type)
	assert.Equal(t, models.RequestTypeLeave, *filter.Type)
	require.NotNil(t, filter.From)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), *filter.From)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 5, filter.PageSize)
	assert.Equal(t, 2, decode(t, rec).Pagination.Page)
}

func TestListRequestsRejectsBadFilters(t *testing.T) {
	api := newTestAPI()
	for _, query := range []string{"status=ARQUIVADO", "type=FOLGA", "from=01/01/2025"} {
		rec := do(api.router, http.MethodGet, "/api/v1/requests?"+query, "manager", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

const (
	deptID     = "0b6c2b8e-6f1a-4c55-9d7e-1f2a3b4c5d01"
	employeeID = "0b6c2b8e-6f1a-4c55-9d7e-1f2a3b4c5d02"
	periodID   = "0b6c2b8e-6f1a-4c55-9d7e-1f2a3b4c5d03"
	otherEmpID = "0b6c2b8e-6f1a-4c55-9d7e-1f2a3b4c5d04"
)

var requestToday = day(2025, time.October, 19)

type requestFixture struct {
	svc   *VacationRequestService
	store *memStore
	audit *auditLoggerStub
	cache *memCache
	actor *models.JWTClaims
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	store := newMemStore()
	store.addDepartment(models.Department{ID: deptID, Name: "Financeiro", AbsenceLimit: 1, Active: true})
	store.addEmployee(models.Employee{ID: employeeID, Name: "Ana Souza", DepartmentID: deptID, Active: true, HireDate: day(2024, time.January, 10)})
	store.addEmployee(models.Employee{ID: otherEmpID, Name: "Bruno Lima", DepartmentID: deptID, Active: true, HireDate: day(2020, time.May, 2)})
	store.addPeriod(activePeriod(periodID, employeeID, 1, day(2024, time.January, 10)))

	audit := &auditLoggerStub{}
	mc := newMemCache()
	cache := NewCacheService(mc, nil, time.Minute, nil, true)

	conflicts := NewConflictService(store, memDepartments{store}, memEmployees{store}, nil, 30)
	conflicts.now = fixedClock(requestToday)

	svc := NewVacationRequestService(store, store, memEmployees{store}, conflicts, cache, NewMetricsService(), audit, nil, nil, 5)
	svc.now = fixedClock(requestToday.Add(9 * time.Hour))

	return &requestFixture{
		svc:   svc,
		store: store,
		audit: audit,
		cache: mc,
		actor: &models.JWTClaims{UserID: "user-1", Email: "rh@example.com", Role: models.RoleAdmin},
	}
}

func (f *requestFixture) create(t *testing.T, req dto.CreateVacationRequest) *models.VacationRequest {
	t.Helper()
	res, err := f.svc.Create(context.Background(), f.actor, req)
	require.NoError(t, err)
	return res.Request
}

func leavePayload(start string, days int) dto.CreateVacationRequest {
	s, _ := parseDate(start)
	return dto.CreateVacationRequest{
		PeriodID:  periodID,
		Type:      models.RequestTypeLeave,
		StartDate: start,
		EndDate:   s.AddDate(0, 0, days-1).Format(dateLayout),
		Days:      days,
	}
}

func TestVacationRequestCreatePending(t *testing.T) {
	f := newRequestFixture(t)
	f.cache.items[employeeBalanceKey(employeeID)] = []byte(`{}`)
	f.cache.items[dashboardCacheKey] = []byte(`{}`)

	res, err := f.svc.Create(context.Background(), f.actor, leavePayload("2025-11-03", 20))
	require.NoError(t, err)

	req := res.Request
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, 20, req.Days)
	assert.Equal(t, day(2025, time.November, 22), req.EndDate)
	assert.Contains(t, f.store.requests, req.ID)

	require.NotNil(t, res.Conflict)
	assert.Equal(t, 0, res.Conflict.Count)
	assert.False(t, res.Conflict.ExceedsLimit)

	assert.NotContains(t, f.cache.items, employeeBalanceKey(employeeID))
	assert.NotContains(t, f.cache.items, dashboardCacheKey)
	assert.Equal(t, []string{models.AuditActionRequestCreate}, f.audit.actions())
}

func TestVacationRequestCreateReportsConflict(t *testing.T) {
	f := newRequestFixture(t)
	f.store.addPeriod(activePeriod("other-period", otherEmpID, 5, day(2024, time.May, 2)))
	f.store.addRequests(leave("other-leave", "other-period", models.RequestStatusApproved, day(2025, time.November, 10), 10))

	res, err := f.svc.Create(context.Background(), f.actor, leavePayload("2025-11-03", 14))
	require.NoError(t, err)

	require.NotNil(t, res.Conflict)
	assert.Equal(t, 1, res.Conflict.Count)
	assert.True(t, res.Conflict.ExceedsLimit)
	assert.Equal(t, models.RequestStatusPending, res.Request.Status)
}

func TestVacationRequestCreateSaleDefaultsDates(t *testing.T) {
	f := newRequestFixture(t)

	res, err := f.svc.Create(context.Background(), f.actor, dto.CreateVacationRequest{
		PeriodID: periodID,
		Type:     models.RequestTypeSale,
		Days:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, requestToday, res.Request.StartDate)
	assert.Equal(t, requestToday, res.Request.EndDate)
	assert.Nil(t, res.Conflict)
}

func TestVacationRequestCreateRejections(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(f *requestFixture)
		payload dto.CreateVacationRequest
		kind    appErrors.Kind
	}{
		{
			name: "date span disagrees with days",
			payload: dto.CreateVacationRequest{
				PeriodID: periodID, Type: models.RequestTypeLeave,
				StartDate: "2025-01-01", EndDate: "2025-01-10", Days: 15,
			},
			kind: appErrors.KindValidation,
		},
		{
			name:    "unknown period",
			payload: func() dto.CreateVacationRequest { p := leavePayload("2025-11-03", 20); p.PeriodID = deptID; return p }(),
			kind:    appErrors.KindNotFound,
		},
		{
			name: "settled period",
			setup: func(f *requestFixture) {
				p := f.store.periods[periodID]
				p.Status = models.PeriodStatusSettled
				f.store.periods[periodID] = p
			},
			payload: leavePayload("2025-11-03", 20),
			kind:    appErrors.KindInvalidState,
		},
		{
			name: "past deadline",
			setup: func(f *requestFixture) {
				p := f.store.periods[periodID]
				p.LeaveDeadline = day(2025, time.October, 1)
				f.store.periods[periodID] = p
			},
			payload: leavePayload("2025-11-03", 20),
			kind:    appErrors.KindInvalidState,
		},
		{
			name: "sale over cap",
			setup: func(f *requestFixture) {
				p := f.store.periods[periodID]
				p.SoldDays = 6
				f.store.periods[periodID] = p
			},
			payload: dto.CreateVacationRequest{PeriodID: periodID, Type: models.RequestTypeSale, Days: 5},
			kind:    appErrors.KindValidation,
		},
		{
			name:    "unknown type",
			payload: dto.CreateVacationRequest{PeriodID: periodID, Type: "FOLGA", Days: 5},
			kind:    appErrors.KindValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRequestFixture(t)
			if tc.setup != nil {
				tc.setup(f)
			}
			_, err := f.svc.Create(context.Background(), f.actor, tc.payload)
			assertKind(t, err, tc.kind)
			assert.Empty(t, f.store.requests)
			assert.Empty(t, f.audit.logs)
		})
	}
}

func TestVacationRequestApproveSiblingRace(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	first := f.create(t, leavePayload("2025-11-03", 20))
	second := f.create(t, leavePayload("2025-12-01", 10))

	approved, err := f.svc.Approve(ctx, f.actor, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "user-1", *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	// a sale approved in the meantime eats into the balance second reserved
	f.store.addRequests(sale("late-sale", periodID, models.RequestStatusApproved, 5))

	_, err = f.svc.Approve(ctx, f.actor, second.ID)
	assertKind(t, err, appErrors.KindValidation)
	assert.Equal(t, models.RequestStatusPending, f.store.requests[second.ID].Status)
}

func TestVacationRequestApproveTwice(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, leavePayload("2025-11-03", 30))

	_, err := f.svc.Approve(context.Background(), f.actor, req.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), f.actor, req.ID)
	assertKind(t, err, appErrors.KindInvalidState)
}

func TestVacationRequestReject(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, leavePayload("2025-11-03", 30))

	_, err := f.svc.Reject(context.Background(), f.actor, req.ID, dto.RejectVacationRequest{Reason: "curto"})
	assertKind(t, err, appErrors.KindValidation)

	rejected, err := f.svc.Reject(context.Background(), f.actor, req.ID, dto.RejectVacationRequest{Reason: "fechamento trimestral"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "fechamento trimestral", *rejected.RejectionReason)

	// the days are free again
	again := f.create(t, leavePayload("2025-12-01", 30))
	assert.Equal(t, models.RequestStatusPending, again.Status)
}

func TestVacationRequestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("approved leave already started", func(t *testing.T) {
		f := newRequestFixture(t)
		f.store.addRequests(leave("started", periodID, models.RequestStatusApproved, day(2025, time.October, 10), 20))

		_, err := f.svc.Cancel(ctx, f.actor, "started", dto.CancelVacationRequest{Reason: "voltou antes"})
		assertKind(t, err, appErrors.KindInvalidState)
	})

	t.Run("approved sale in the past", func(t *testing.T) {
		f := newRequestFixture(t)
		s := sale("old-sale", periodID, models.RequestStatusApproved, 10)
		s.StartDate, s.EndDate = day(2025, time.February, 1), day(2025, time.February, 1)
		f.store.addRequests(s)

		cancelled, err := f.svc.Cancel(ctx, f.actor, "old-sale", dto.CancelVacationRequest{Reason: "desistiu da venda"})
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
		assert.Equal(t, []string{models.AuditActionRequestCancel}, f.audit.actions())
	})

	t.Run("approved future leave", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.create(t, leavePayload("2025-11-03", 30))
		_, err := f.svc.Approve(ctx, f.actor, req.ID)
		require.NoError(t, err)

		cancelled, err := f.svc.Cancel(ctx, f.actor, req.ID, dto.CancelVacationRequest{Reason: "viagem adiada"})
		require.NoError(t, err)
		assert.Equal(t, "viagem adiada", *cancelled.CancellationReason)
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newRequestFixture(t)
		_, err := f.svc.Cancel(ctx, f.actor, "missing", dto.CancelVacationRequest{Reason: "viagem adiada"})
		assertKind(t, err, appErrors.KindNotFound)
	})
}

func TestVacationRequestUpdateRevalidates(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.create(t, leavePayload("2025-11-03", 14))
	f.create(t, leavePayload("2025-12-01", 5))
	f.create(t, leavePayload("2025-12-10", 5))

	// shrinking the main fraction leaves three short ones
	days := 5
	end := "2025-11-07"
	_, err := f.svc.Update(ctx, f.actor, req.ID, dto.UpdateVacationRequest{Days: &days, EndDate: &end})
	assertKind(t, err, appErrors.KindValidation)
	assert.Equal(t, 14, f.store.requests[req.ID].Days)

	// days that disagree with the stored dates
	days = 15
	_, err = f.svc.Update(ctx, f.actor, req.ID, dto.UpdateVacationRequest{Days: &days})
	assertKind(t, err, appErrors.KindValidation)

	end = "2025-11-17"
	updated, err := f.svc.Update(ctx, f.actor, req.ID, dto.UpdateVacationRequest{Days: &days, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.Days)
	assert.Equal(t, 15, f.store.requests[req.ID].Days)
}

func TestVacationRequestUpdateEnforcesSaleCap(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.actor, dto.CreateVacationRequest{PeriodID: periodID, Type: models.RequestTypeSale, Days: 5})
	require.NoError(t, err)
	id := res.Request.ID

	days := 11
	_, err = f.svc.Update(ctx, f.actor, id, dto.UpdateVacationRequest{Days: &days})
	assertKind(t, err, appErrors.KindValidation)
	assert.Equal(t, 5, f.store.requests[id].Days)

	days = 10
	updated, err := f.svc.Update(ctx, f.actor, id, dto.UpdateVacationRequest{Days: &days})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Days)
}

func TestVacationRequestUpdateRequiresPending(t *testing.T) {
	f := newRequestFixture(t)
	f.store.addRequests(leave("approved", periodID, models.RequestStatusApproved, day(2025, time.November, 3), 14))

	days := 10
	_, err := f.svc.Update(context.Background(), f.actor, "approved", dto.UpdateVacationRequest{Days: &days})
	assertKind(t, err, appErrors.KindInvalidState)
}

func TestVacationRequestDelete(t *testing.T) {
	f := newRequestFixture(t)
	f.store.addRequests(leave("approved", periodID, models.RequestStatusApproved, day(2025, time.January, 13), 14))

	require.NoError(t, f.svc.Delete(context.Background(), f.actor, "approved"))
	assert.NotContains(t, f.store.requests, "approved")
	assert.Equal(t, []string{models.AuditActionRequestDelete}, f.audit.actions())

	assertKind(t, f.svc.Delete(context.Background(), f.actor, "approved"), appErrors.KindNotFound)
}

func TestVacationRequestPendingAndUpcoming(t *testing.T) {
	f := newRequestFixture(t)
	f.create(t, leavePayload("2025-11-03", 14))
	f.store.addRequests(leave("past", periodID, models.RequestStatusApproved, day(2025, time.January, 13), 5))

	items, page, err := f.svc.Pending(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalCount)

	upcoming, err := f.svc.Upcoming(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Ana Souza", upcoming[0].EmployeeName)
}

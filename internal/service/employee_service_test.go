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

var employeeToday = day(2025, time.October, 19)

func newEmployeeFixture(t *testing.T) (*EmployeeService, *memStore, *memCache, *auditLoggerStub) {
	t.Helper()
	store := newMemStore()
	store.addDepartment(models.Department{ID: deptID, Name: "Financeiro", AbsenceLimit: 1, Active: true})
	mc := newMemCache()
	audit := &auditLoggerStub{}

	svc := NewEmployeeService(memEmployees{store}, memDepartments{store}, memPeriods{store}, store,
		NewCacheService(mc, nil, time.Minute, nil, true), audit, nil, nil, time.Minute)
	svc.now = fixedClock(employeeToday)
	return svc, store, mc, audit
}

func employeePayload(email, hireDate string) dto.CreateEmployeeRequest {
	return dto.CreateEmployeeRequest{
		Name:         "Ana Souza",
		Email:        email,
		HireDate:     hireDate,
		DepartmentID: deptID,
	}
}

func TestEmployeeCreateGeneratesPeriods(t *testing.T) {
	svc, store, _, _ := newEmployeeFixture(t)

	detail, err := svc.Create(context.Background(), employeePayload("Ana.Souza@Example.com", "2023-10-19"))
	require.NoError(t, err)

	assert.Equal(t, "ana.souza@example.com", detail.Email)
	assert.Equal(t, "Financeiro", detail.DepartmentName)
	assert.True(t, detail.Active)

	periods, err := memPeriods{store}.ListByEmployee(context.Background(), detail.ID)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, day(2023, time.October, 19), periods[0].AcquisitionStart)
	assert.Equal(t, day(2025, time.October, 19), periods[1].AcquisitionEnd)
}

func TestEmployeeCreateRejections(t *testing.T) {
	cases := []struct {
		name    string
		payload dto.CreateEmployeeRequest
		kind    appErrors.Kind
	}{
		{name: "future hire date", payload: employeePayload("b@example.com", "2025-10-20"), kind: appErrors.KindValidation},
		{name: "malformed hire date", payload: employeePayload("b@example.com", "19/10/2023"), kind: appErrors.KindValidation},
		{name: "duplicate email", payload: employeePayload("ANA@example.com", "2023-10-19"), kind: appErrors.KindConflict},
		{
			name: "unknown department",
			payload: func() dto.CreateEmployeeRequest {
				p := employeePayload("b@example.com", "2023-10-19")
				p.DepartmentID = otherEmpID
				return p
			}(),
			kind: appErrors.KindNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _, _ := newEmployeeFixture(t)
			store.addEmployee(models.Employee{ID: employeeID, Name: "Ana", Email: "ana@example.com", DepartmentID: deptID, Active: true})

			_, err := svc.Create(context.Background(), tc.payload)
			assertKind(t, err, tc.kind)
			assert.Len(t, store.employees, 1)
		})
	}
}

func TestEmployeeUpdateUniqueness(t *testing.T) {
	svc, store, _, _ := newEmployeeFixture(t)
	reg := "M-001"
	store.addEmployee(models.Employee{ID: employeeID, Name: "Ana", Email: "ana@example.com", RegistrationNumber: &reg, DepartmentID: deptID, Active: true})
	store.addEmployee(models.Employee{ID: otherEmpID, Name: "Bruno", Email: "bruno@example.com", DepartmentID: deptID, Active: true})

	taken := "Bruno@example.com"
	_, err := svc.Update(context.Background(), employeeID, dto.UpdateEmployeeRequest{Email: &taken})
	assertKind(t, err, appErrors.KindConflict)

	_, err = svc.Update(context.Background(), otherEmpID, dto.UpdateEmployeeRequest{RegistrationNumber: &reg})
	assertKind(t, err, appErrors.KindConflict)

	same := "ANA@example.com"
	name := "Ana Maria"
	updated, err := svc.Update(context.Background(), employeeID, dto.UpdateEmployeeRequest{Email: &same, Name: &name, RegistrationNumber: &reg})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, "ana@example.com", updated.Email)
}

func TestEmployeeBalanceCached(t *testing.T) {
	svc, store, mc, _ := newEmployeeFixture(t)
	store.addEmployee(models.Employee{ID: employeeID, Name: "Ana", Email: "ana@example.com", DepartmentID: deptID, Active: true})
	store.addPeriod(activePeriod(periodID, employeeID, 1, day(2024, time.January, 10)))
	ignored := activePeriod("p-ignored", employeeID, 0, day(2023, time.January, 10))
	ignored.Ignored = true
	store.addPeriod(ignored)
	store.addRequests(
		leave("r1", periodID, models.RequestStatusApproved, day(2025, time.February, 3), 20),
		sale("s1", periodID, models.RequestStatusPending, 5),
	)

	balance, hit, err := svc.Balance(context.Background(), employeeID)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, balance.Periods, 2)
	assert.Equal(t, 30, balance.TotalEntitled)
	assert.Equal(t, 20, balance.TotalTaken)
	assert.Equal(t, 5, balance.TotalPending)
	assert.Equal(t, 5, balance.TotalAvailable)
	assert.Contains(t, mc.items, employeeBalanceKey(employeeID))

	cached, hit, err := svc.Balance(context.Background(), employeeID)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, balance.TotalAvailable, cached.TotalAvailable)

	require.NoError(t, svc.SetActive(context.Background(), employeeID, false))
	assert.NotContains(t, mc.items, employeeBalanceKey(employeeID))
	assert.False(t, store.employees[employeeID].Active)

	_, _, err = svc.Balance(context.Background(), "missing")
	assertKind(t, err, appErrors.KindNotFound)
}

func TestEmployeeDeleteCascades(t *testing.T) {
	svc, store, _, audit := newEmployeeFixture(t)
	store.addEmployee(models.Employee{ID: employeeID, Name: "Ana", Email: "ana@example.com", DepartmentID: deptID, Active: true})
	store.addPeriod(activePeriod(periodID, employeeID, 1, day(2024, time.January, 10)))
	store.addRequests(leave("r1", periodID, models.RequestStatusApproved, day(2025, time.February, 3), 20))

	require.NoError(t, svc.Delete(context.Background(), &models.JWTClaims{UserID: "admin"}, employeeID))
	assert.Empty(t, store.employees)
	assert.Empty(t, store.periods)
	assert.Empty(t, store.requests)
	assert.Equal(t, []string{models.AuditActionEmployeeDelete}, audit.actions())

	assertKind(t, svc.Delete(context.Background(), nil, employeeID), appErrors.KindNotFound)
}

func TestEmployeeOnLeave(t *testing.T) {
	svc, store, _, _ := newEmployeeFixture(t)
	store.addEmployee(models.Employee{ID: employeeID, Name: "Ana", DepartmentID: deptID, Active: true})
	store.addPeriod(activePeriod(periodID, employeeID, 1, day(2024, time.January, 10)))
	store.addRequests(leave("r1", periodID, models.RequestStatusApproved, day(2025, time.October, 13), 14))

	entries, err := svc.OnLeave(context.Background(), time.Time{}, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "r1", entries[0].RequestID)

	entries, err = svc.OnLeave(context.Background(), day(2025, time.December, 1), deptID)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

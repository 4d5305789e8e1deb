package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/internal/repository"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

func assertKind(t *testing.T, err error, kind appErrors.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, appErrors.FromError(err).Kind(), err.Error())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func activePeriod(id, employeeID string, number int, start time.Time) models.AcquisitionPeriod {
	p := newPeriod(employeeID, number, start, addYears(start, 1))
	p.ID = id
	return p
}

func leave(id, periodID string, status models.RequestStatus, start time.Time, days int) models.VacationRequest {
	return models.VacationRequest{
		ID:        id,
		PeriodID:  periodID,
		Type:      models.RequestTypeLeave,
		Status:    status,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, days-1),
		Days:      days,
	}
}

func sale(id, periodID string, status models.RequestStatus, days int) models.VacationRequest {
	return models.VacationRequest{
		ID:       id,
		PeriodID: periodID,
		Type:     models.RequestTypeSale,
		Status:   status,
		Days:     days,
	}
}

type auditLoggerStub struct {
	logs []*models.AuditLog
}

func (a *auditLoggerStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditLoggerStub) actions() []string {
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

// memStore is an in-memory stand-in for the Postgres repositories.
type memStore struct {
	departments map[string]models.Department
	employees   map[string]models.Employee
	periods     map[string]models.AcquisitionPeriod
	requests    map[string]models.VacationRequest

	createPeriodErr map[string]error
	updateStatusErr map[string]error
	statusUpdates   map[string]models.PeriodStatus
	ledgerCalls     int
}

func newMemStore() *memStore {
	return &memStore{
		departments:     map[string]models.Department{},
		employees:       map[string]models.Employee{},
		periods:         map[string]models.AcquisitionPeriod{},
		requests:        map[string]models.VacationRequest{},
		createPeriodErr: map[string]error{},
		updateStatusErr: map[string]error{},
		statusUpdates:   map[string]models.PeriodStatus{},
	}
}

func (m *memStore) addDepartment(d models.Department) { m.departments[d.ID] = d }
func (m *memStore) addEmployee(e models.Employee)     { m.employees[e.ID] = e }
func (m *memStore) addPeriod(p models.AcquisitionPeriod) {
	m.periods[p.ID] = p
}
func (m *memStore) addRequests(reqs ...models.VacationRequest) {
	for _, r := range reqs {
		m.requests[r.ID] = r
	}
}

func (m *memStore) requestsOf(periodID string) []models.VacationRequest {
	out := make([]models.VacationRequest, 0)
	for _, r := range m.requests {
		if r.PeriodID == periodID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ledger

type memLedger struct {
	store    *memStore
	period   models.AcquisitionPeriod
	requests []models.VacationRequest
	inserts  []models.VacationRequest
	updates  []models.VacationRequest
	sold     *int
}

func (l *memLedger) Period() models.AcquisitionPeriod    { return l.period }
func (l *memLedger) Requests() []models.VacationRequest { return l.requests }

func (l *memLedger) InsertRequest(ctx context.Context, req *models.VacationRequest) error {
	l.inserts = append(l.inserts, *req)
	return nil
}

func (l *memLedger) UpdateRequest(ctx context.Context, req *models.VacationRequest, expected models.RequestStatus) error {
	current, ok := l.store.requests[req.ID]
	if !ok || current.Status != expected {
		return repository.ErrStaleRequest
	}
	l.updates = append(l.updates, *req)
	return nil
}

func (l *memLedger) UpdateSoldDays(ctx context.Context, days int) error {
	l.sold = &days
	return nil
}

func (m *memStore) WithPeriod(ctx context.Context, periodID string, fn func(ctx context.Context, l repository.Ledger) error) error {
	m.ledgerCalls++
	period, ok := m.periods[periodID]
	if !ok {
		return sql.ErrNoRows
	}
	l := &memLedger{store: m, period: period, requests: m.requestsOf(periodID)}
	if err := fn(ctx, l); err != nil {
		return err
	}
	for _, r := range l.inserts {
		m.requests[r.ID] = r
	}
	for _, r := range l.updates {
		m.requests[r.ID] = r
	}
	if l.sold != nil {
		period.SoldDays = *l.sold
		m.periods[periodID] = period
	}
	return nil
}

// requests

func (m *memStore) FindByID(ctx context.Context, id string) (*models.VacationRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (m *memStore) detail(r models.VacationRequest) models.VacationRequestDetail {
	p := m.periods[r.PeriodID]
	e := m.employees[p.EmployeeID]
	return models.VacationRequestDetail{
		VacationRequest: r,
		PeriodNumber:    p.Number,
		EmployeeID:      e.ID,
		EmployeeName:    e.Name,
		DepartmentID:    e.DepartmentID,
		DepartmentName:  m.departments[e.DepartmentID].Name,
	}
}

func (m *memStore) FindDetail(ctx context.Context, id string) (*models.VacationRequestDetail, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := m.detail(r)
	return &d, nil
}

func (m *memStore) List(ctx context.Context, filter models.VacationRequestFilter) ([]models.VacationRequestDetail, int, error) {
	out := make([]models.VacationRequestDetail, 0)
	for _, r := range m.requests {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, m.detail(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memStore) ListUpcoming(ctx context.Context, today time.Time, limit int) ([]models.VacationRequestDetail, error) {
	out := make([]models.VacationRequestDetail, 0)
	for _, r := range m.requests {
		if r.Type == models.RequestTypeLeave && r.Status.Counts() && !r.StartDate.Before(today) {
			out = append(out, m.detail(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	n := 0
	for _, r := range m.requests {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.requests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.requests, id)
	return nil
}

func (m *memStore) ListByPeriod(ctx context.Context, periodID string) ([]models.VacationRequest, error) {
	return m.requestsOf(periodID), nil
}

func (m *memStore) ListByPeriodIDs(ctx context.Context, ids []string) ([]models.VacationRequest, error) {
	out := make([]models.VacationRequest, 0)
	for _, id := range ids {
		out = append(out, m.requestsOf(id)...)
	}
	return out, nil
}

func (m *memStore) FindConflicts(ctx context.Context, departmentID string, start, end time.Time, excludeID string) ([]models.ConflictEntry, error) {
	out := make([]models.ConflictEntry, 0)
	for _, r := range m.requests {
		if r.ID == excludeID || r.Status != models.RequestStatusApproved || r.Type != models.RequestTypeLeave {
			continue
		}
		e := m.employees[m.periods[r.PeriodID].EmployeeID]
		if e.DepartmentID != departmentID || !e.Active {
			continue
		}
		if r.StartDate.After(end) || r.EndDate.Before(start) {
			continue
		}
		out = append(out, models.ConflictEntry{
			RequestID: r.ID, EmployeeID: e.ID, EmployeeName: e.Name,
			StartDate: r.StartDate, EndDate: r.EndDate, Days: r.Days,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out, nil
}

func periodKey(employeeID string, number int) string {
	return fmt.Sprintf("%s/%d", employeeID, number)
}

// memPeriods exposes the period repository view of a memStore.
type memPeriods struct{ *memStore }

func (m memPeriods) FindByID(ctx context.Context, id string) (*models.AcquisitionPeriod, error) {
	p, ok := m.periods[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (m memPeriods) ListByEmployee(ctx context.Context, employeeID string) ([]models.AcquisitionPeriod, error) {
	out := make([]models.AcquisitionPeriod, 0)
	for _, p := range m.periods {
		if p.EmployeeID == employeeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m memPeriods) ListByStatuses(ctx context.Context, statuses ...models.PeriodStatus) ([]models.AcquisitionPeriod, error) {
	out := make([]models.AcquisitionPeriod, 0)
	for _, p := range m.periods {
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memPeriods) Create(ctx context.Context, p *models.AcquisitionPeriod) error {
	key := periodKey(p.EmployeeID, p.Number)
	if err := m.createPeriodErr[key]; err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.periods[p.ID] = *p
	return nil
}

func (m memPeriods) UpdateStatus(ctx context.Context, id string, status models.PeriodStatus) error {
	if err := m.updateStatusErr[id]; err != nil {
		return err
	}
	p := m.periods[id]
	p.Status = status
	m.periods[id] = p
	m.statusUpdates[id] = status
	return nil
}

func (m memPeriods) ListExpiring(ctx context.Context, today, until time.Time) ([]models.PeriodWithEmployee, error) {
	out := make([]models.PeriodWithEmployee, 0)
	for _, p := range m.periods {
		if p.Status == models.PeriodStatusActive && !p.Ignored && p.LeaveDeadline.After(today) && !p.LeaveDeadline.After(until) {
			out = append(out, models.PeriodWithEmployee{AcquisitionPeriod: p})
		}
	}
	return out, nil
}

func (m memPeriods) ListOverdue(ctx context.Context, today time.Time) ([]models.PeriodWithEmployee, error) {
	out := make([]models.PeriodWithEmployee, 0)
	for _, p := range m.periods {
		if p.Status != models.PeriodStatusSettled && !p.Ignored && p.LeaveDeadline.Before(today) {
			out = append(out, models.PeriodWithEmployee{AcquisitionPeriod: p})
		}
	}
	return out, nil
}

func (m memPeriods) SetIgnored(ctx context.Context, id string, ignored bool) error {
	p, ok := m.periods[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Ignored = ignored
	m.periods[id] = p
	return nil
}

func (m memPeriods) UpdateNotes(ctx context.Context, id string, notes *string) error {
	p, ok := m.periods[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Notes = notes
	m.periods[id] = p
	return nil
}

// memEmployees exposes the employee repository view of a memStore.
type memEmployees struct{ *memStore }

func (m memEmployees) FindByID(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.EmployeeDetail{Employee: e, DepartmentName: m.departments[e.DepartmentID].Name}, nil
}

func (m memEmployees) ListActive(ctx context.Context) ([]models.Employee, error) {
	out := make([]models.Employee, 0)
	for _, e := range m.employees {
		if e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memEmployees) Counts(ctx context.Context) (int, int, error) {
	active := 0
	for _, e := range m.employees {
		if e.Active {
			active++
		}
	}
	return len(m.employees), active, nil
}

func (m memEmployees) ListOnLeave(ctx context.Context, d time.Time, departmentID string) ([]dto.OnLeaveEntry, error) {
	out := make([]dto.OnLeaveEntry, 0)
	for _, r := range m.requests {
		if r.Type != models.RequestTypeLeave || r.Status != models.RequestStatusApproved {
			continue
		}
		if r.StartDate.After(d) || r.EndDate.Before(d) {
			continue
		}
		e := m.employees[m.periods[r.PeriodID].EmployeeID]
		if departmentID != "" && e.DepartmentID != departmentID {
			continue
		}
		out = append(out, dto.OnLeaveEntry{EmployeeID: e.ID, EmployeeName: e.Name, RequestID: r.ID, StartDate: r.StartDate, EndDate: r.EndDate})
	}
	return out, nil
}

// memDepartments exposes the department repository view of a memStore.
type memDepartments struct{ *memStore }

func (m memDepartments) FindByID(ctx context.Context, id string) (*models.Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (m memDepartments) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, error) {
	out := make([]models.Department, 0)
	for _, d := range m.departments {
		if filter.Active != nil && d.Active != *filter.Active {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memDepartments) Summaries(ctx context.Context, d time.Time) ([]dto.DepartmentSummary, error) {
	out := make([]dto.DepartmentSummary, 0)
	for _, dep := range m.departments {
		out = append(out, dto.DepartmentSummary{DepartmentID: dep.ID, DepartmentName: dep.Name, AbsenceLimit: dep.AbsenceLimit})
	}
	return out, nil
}

// memCache is a CacheRepository backed by a map of JSON payloads.
type memCache struct {
	items   map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.items, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			c.deleted = append(c.deleted, k)
		}
	}
	return nil
}

func (m memEmployees) List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, int, error) {
	out := make([]models.EmployeeDetail, 0)
	for _, e := range m.employees {
		if filter.DepartmentID != "" && e.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.Active != nil && e.Active != *filter.Active {
			continue
		}
		out = append(out, models.EmployeeDetail{Employee: e, DepartmentName: m.departments[e.DepartmentID].Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m memEmployees) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	for _, e := range m.employees {
		if e.ID != excludeID && strings.EqualFold(e.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m memEmployees) ExistsByRegistration(ctx context.Context, registration, excludeID string) (bool, error) {
	for _, e := range m.employees {
		if e.ID != excludeID && e.RegistrationNumber != nil && *e.RegistrationNumber == registration {
			return true, nil
		}
	}
	return false, nil
}

func (m memEmployees) CreateWithPeriods(ctx context.Context, employee *models.Employee, periods []models.AcquisitionPeriod) error {
	m.employees[employee.ID] = *employee
	for _, p := range periods {
		p.ID = uuid.NewString()
		m.periods[p.ID] = p
	}
	return nil
}

func (m memEmployees) Update(ctx context.Context, employee *models.Employee) error {
	if _, ok := m.employees[employee.ID]; !ok {
		return sql.ErrNoRows
	}
	m.employees[employee.ID] = *employee
	return nil
}

func (m memEmployees) SetActive(ctx context.Context, id string, active bool) error {
	e, ok := m.employees[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Active = active
	m.employees[id] = e
	return nil
}

func (m memEmployees) Delete(ctx context.Context, id string) error {
	if _, ok := m.employees[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.employees, id)
	for pid, p := range m.periods {
		if p.EmployeeID != id {
			continue
		}
		for rid, r := range m.requests {
			if r.PeriodID == pid {
				delete(m.requests, rid)
			}
		}
		delete(m.periods, pid)
	}
	return nil
}

func (m memDepartments) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for _, d := range m.departments {
		if d.ID != excludeID && strings.EqualFold(d.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m memDepartments) Create(ctx context.Context, d *models.Department) error {
	if d.ID == "" {
		d.ID = fmt.Sprintf("dept-%d", len(m.departments)+1)
	}
	m.departments[d.ID] = *d
	return nil
}

func (m memDepartments) Update(ctx context.Context, d *models.Department) error {
	if _, ok := m.departments[d.ID]; !ok {
		return sql.ErrNoRows
	}
	m.departments[d.ID] = *d
	return nil
}

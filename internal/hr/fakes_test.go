package hr_test

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/cache"
	"github.com/kiranshivaraju/hrms/internal/hr"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
	"github.com/shopspring/decimal"
)

// namespace is the fake content of one tenant schema.
type namespace struct {
	departments map[uuid.UUID]*models.Department
	employees   map[uuid.UUID]*models.Employee
	leaveTypes  map[uuid.UUID]*models.LeaveType
	leaves      map[uuid.UUID]*models.LeaveRequest
	periods     map[uuid.UUID]*models.PayrollPeriod
	slips       map[uuid.UUID]*models.SalarySlip
	audit       []*models.AuditEntry
}

type fakeStore struct {
	mu             sync.Mutex
	spaces         map[store.Schema]*namespace
	dashboardCalls map[store.Schema]int
	balanceCalls   int
	auditErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{spaces: map[store.Schema]*namespace{}, dashboardCalls: map[store.Schema]int{}}
}

var _ hr.Store = (*fakeStore)(nil)

func (f *fakeStore) ns(s store.Schema) *namespace {
	n, ok := f.spaces[s]
	if !ok {
		n = &namespace{
			departments: map[uuid.UUID]*models.Department{},
			employees:   map[uuid.UUID]*models.Employee{},
			leaveTypes:  map[uuid.UUID]*models.LeaveType{},
			leaves:      map[uuid.UUID]*models.LeaveRequest{},
			periods:     map[uuid.UUID]*models.PayrollPeriod{},
			slips:       map[uuid.UUID]*models.SalarySlip{},
		}
		f.spaces[s] = n
	}
	return n
}

func (f *fakeStore) ListDepartments(_ context.Context, s store.Schema) ([]*models.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Department
	for _, d := range f.ns(s).departments {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) GetDepartment(_ context.Context, s store.Schema, id uuid.UUID) (*models.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.ns(s).departments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) CreateDepartment(_ context.Context, s store.Schema, d *models.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.ns(s).departments {
		if existing.Name == d.Name {
			return store.ErrAlreadyExists
		}
	}
	f.ns(s).departments[d.ID] = d
	return nil
}

func (f *fakeStore) UpdateDepartment(_ context.Context, s store.Schema, id uuid.UUID, p store.DepartmentPatch) (*models.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.ns(s).departments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Code != nil {
		d.Code = p.Code
	}
	if p.Budget != nil {
		d.Budget = p.Budget
	}
	return d, nil
}

func (f *fakeStore) DeleteDepartment(_ context.Context, s store.Schema, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ns(s).departments[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.ns(s).departments, id)
	return nil
}

func (f *fakeStore) ListEmployees(_ context.Context, s store.Schema, filter store.EmployeeFilter) ([]*models.Employee, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Employee
	for _, e := range f.ns(s).employees {
		if e.DeletedAt != nil {
			continue
		}
		if filter.Status != "" && e.EmploymentStatus != filter.Status {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetEmployee(_ context.Context, s store.Schema, id uuid.UUID) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.ns(s).employees[id]
	if !ok || e.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) CreateEmployee(_ context.Context, s store.Schema, e *models.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.ns(s).employees[e.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateEmployee(_ context.Context, s store.Schema, id uuid.UUID, p store.EmployeePatch) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.ns(s).employees[id]
	if !ok || e.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	if p.FirstName != nil {
		e.FirstName = *p.FirstName
	}
	if p.JobTitle != nil {
		e.JobTitle = p.JobTitle
	}
	if p.EmploymentStatus != nil {
		e.EmploymentStatus = *p.EmploymentStatus
	}
	if p.EndDate != nil {
		e.EndDate = p.EndDate
	}
	e.UpdatedBy = p.UpdatedBy
	cp := *e
	return &cp, nil
}

func (f *fakeStore) SoftDeleteEmployee(_ context.Context, s store.Schema, id uuid.UUID, by *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.ns(s).employees[id]
	if !ok || e.DeletedAt != nil {
		return store.ErrNotFound
	}
	now := time.Now()
	e.DeletedAt = &now
	e.EmploymentStatus = models.EmploymentStatusTerminated
	e.UpdatedBy = by
	return nil
}

func (f *fakeStore) ListLeaveTypes(_ context.Context, s store.Schema) ([]*models.LeaveType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.LeaveType
	for _, lt := range f.ns(s).leaveTypes {
		out = append(out, lt)
	}
	return out, nil
}

func (f *fakeStore) GetLeaveType(_ context.Context, s store.Schema, id uuid.UUID) (*models.LeaveType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lt, ok := f.ns(s).leaveTypes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return lt, nil
}

func (f *fakeStore) CreateLeaveType(_ context.Context, s store.Schema, lt *models.LeaveType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ns(s).leaveTypes[lt.ID] = lt
	return nil
}

func (f *fakeStore) ListLeaveRequests(_ context.Context, s store.Schema, filter store.LeaveFilter) ([]*models.LeaveRequest, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.LeaveRequest
	for _, lr := range f.ns(s).leaves {
		if filter.Status != "" && lr.Status != filter.Status {
			continue
		}
		out = append(out, lr)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetLeaveRequest(_ context.Context, s store.Schema, id uuid.UUID) (*models.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lr, ok := f.ns(s).leaves[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return lr, nil
}

func (f *fakeStore) CreateLeaveRequest(_ context.Context, s store.Schema, lr *models.LeaveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ns(s).leaves[lr.ID] = lr
	return nil
}

func (f *fakeStore) DecideLeaveRequest(_ context.Context, s store.Schema, id uuid.UUID, d store.LeaveDecision) (*models.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lr, ok := f.ns(s).leaves[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if lr.Status != models.LeaveStatusSubmitted {
		return nil, store.ErrInvalidTransition
	}
	lr.Status = d.Status
	approver := d.ApprovedBy
	lr.ApprovedBy = &approver
	lr.ApprovalComment = d.Comment
	at := d.At
	lr.ApprovedAt = &at
	return lr, nil
}

func (f *fakeStore) LeaveBalances(_ context.Context, s store.Schema, employeeID uuid.UUID, _ int) ([]*models.LeaveBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	var out []*models.LeaveBalance
	for _, lt := range f.ns(s).leaveTypes {
		used := 0
		for _, lr := range f.ns(s).leaves {
			if lr.EmployeeID == employeeID && lr.LeaveTypeID == lt.ID && lr.Status == models.LeaveStatusApproved {
				used += lr.DurationDays
			}
		}
		out = append(out, &models.LeaveBalance{
			LeaveTypeID:      lt.ID,
			LeaveType:        lt.Name,
			TotalEntitlement: lt.AnnualEntitlement,
			UsedDays:         used,
			RemainingDays:    lt.AnnualEntitlement - used,
		})
	}
	return out, nil
}

func (f *fakeStore) ListPayrollPeriods(_ context.Context, s store.Schema, status string) ([]*models.PayrollPeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PayrollPeriod
	for _, p := range f.ns(s).periods {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPayrollPeriod(_ context.Context, s store.Schema, id uuid.UUID) (*models.PayrollPeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.ns(s).periods[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreatePayrollPeriod(_ context.Context, s store.Schema, p *models.PayrollPeriod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.ns(s).periods[p.ID] = &cp
	return nil
}

func (f *fakeStore) TransitionPayrollPeriod(_ context.Context, s store.Schema, id uuid.UUID, from, to string) (*models.PayrollPeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.ns(s).periods[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Status != from {
		return nil, store.ErrInvalidTransition
	}
	p.Status = to
	if to == models.PayrollStatusProcessed {
		total := decimal.Zero
		count := 0
		for _, slip := range f.ns(s).slips {
			if slip.PayrollPeriodID == id {
				total = total.Add(slip.NetSalary)
				count++
			}
		}
		p.TotalEmployees = count
		p.TotalSalary = total
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreateSalarySlip(_ context.Context, s store.Schema, slip *models.SalarySlip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ns(s).slips[slip.ID] = slip
	return nil
}

func (f *fakeStore) GetSalarySlip(_ context.Context, s store.Schema, id uuid.UUID) (*models.SalarySlip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slip, ok := f.ns(s).slips[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slip, nil
}

func (f *fakeStore) ListSalarySlips(_ context.Context, s store.Schema, periodID uuid.UUID) ([]*models.SalarySlip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SalarySlip
	for _, slip := range f.ns(s).slips {
		if slip.PayrollPeriodID == periodID {
			out = append(out, slip)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendAudit(_ context.Context, s store.Schema, e *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return f.auditErr
	}
	f.ns(s).audit = append(f.ns(s).audit, e)
	return nil
}

func (f *fakeStore) ListAudit(_ context.Context, s store.Schema, _ store.AuditFilter) ([]*models.AuditEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]*models.AuditEntry(nil), f.ns(s).audit...)
	return out, len(out), nil
}

func (f *fakeStore) DashboardMetrics(_ context.Context, s store.Schema, now time.Time) (*models.DashboardMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dashboardCalls[s]++
	m := &models.DashboardMetrics{DepartmentDistribution: map[string]int{}, LastUpdated: now}
	for _, e := range f.ns(s).employees {
		if e.DeletedAt != nil {
			continue
		}
		m.TotalEmployees++
		if e.EmploymentStatus == models.EmploymentStatusActive {
			m.ActiveEmployees++
		}
	}
	for _, lr := range f.ns(s).leaves {
		if lr.Status == models.LeaveStatusSubmitted {
			m.LeavesPendingApproval++
		}
	}
	return m, nil
}

func (f *fakeStore) auditLog(s store.Schema) []*models.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.AuditEntry(nil), f.ns(s).audit...)
}

func (f *fakeStore) dashboardHits(s store.Schema) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dashboardCalls[s]
}

// memCache is an in-memory cache.Cache with glob pattern deletes.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func (m *memCache) DeletePattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *memCache) Ping(_ context.Context) error { return m.err }

func (m *memCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, m.err
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

var _ cache.Cache = (*memCache)(nil)

type fakeFeatures struct {
	enabled map[uuid.UUID]bool
}

func (f fakeFeatures) IsFeatureEnabled(_ context.Context, tenantID uuid.UUID, name string) (bool, error) {
	return name == hr.FeatureAuditLog && f.enabled[tenantID], nil
}

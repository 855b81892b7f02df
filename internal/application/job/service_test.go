package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCompanyStore struct{ mock.Mock }

func (m *mockCompanyStore) Put(ctx context.Context, c *domain.Company) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCompanyStore) Get(ctx context.Context, companyID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID)
	if c, _ := args.Get(0).(*domain.Company); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCompanyStore) Update(ctx context.Context, companyID string, updates map[string]interface{}) error {
	return m.Called(ctx, companyID, updates).Error(0)
}
func (m *mockCompanyStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Company, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.Company), args.String(1), args.Error(2)
}

type mockJobStore struct{ mock.Mock }

func (m *mockJobStore) Put(ctx context.Context, j *domain.Job) error {
	return m.Called(ctx, j).Error(0)
}
func (m *mockJobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	args := m.Called(ctx, jobID)
	if j, _ := args.Get(0).(*domain.Job); j != nil {
		return j, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockJobStore) Update(ctx context.Context, jobID string, updates map[string]interface{}) error {
	return m.Called(ctx, jobID, updates).Error(0)
}
func (m *mockJobStore) SoftDelete(ctx context.Context, jobID string) error {
	return m.Called(ctx, jobID).Error(0)
}
func (m *mockJobStore) ScanPage(ctx context.Context, f domain.JobFilter, limit int32, cursor string) ([]domain.Job, string, error) {
	args := m.Called(ctx, f, limit, cursor)
	return args.Get(0).([]domain.Job), args.String(1), args.Error(2)
}

type mockApplicationStore struct{ mock.Mock }

func (m *mockApplicationStore) Put(ctx context.Context, a *domain.JobApplication) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockApplicationStore) Get(ctx context.Context, applicationID string) (*domain.JobApplication, error) {
	args := m.Called(ctx, applicationID)
	if a, _ := args.Get(0).(*domain.JobApplication); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockApplicationStore) GetByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*domain.JobApplication, error) {
	args := m.Called(ctx, jobID, applicantID)
	if a, _ := args.Get(0).(*domain.JobApplication); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockApplicationStore) ListByJob(ctx context.Context, jobID string) ([]domain.JobApplication, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]domain.JobApplication), args.Error(1)
}
func (m *mockApplicationStore) ListByApplicant(ctx context.Context, applicantID string) ([]domain.JobApplication, error) {
	args := m.Called(ctx, applicantID)
	return args.Get(0).([]domain.JobApplication), args.Error(1)
}
func (m *mockApplicationStore) Update(ctx context.Context, applicationID string, updates map[string]interface{}) error {
	return m.Called(ctx, applicationID, updates).Error(0)
}

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type mockEventPublisher struct{ mock.Mock }

func (m *mockEventPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

// --- helpers ---

type fixture struct {
	companies     *mockCompanyStore
	jobs          *mockJobStore
	applications  *mockApplicationStore
	notifications *mockNotificationStore
	events        *mockEventPublisher
	svc           Service
}

func newFixture() *fixture {
	f := &fixture{
		companies:     &mockCompanyStore{},
		jobs:          &mockJobStore{},
		applications:  &mockApplicationStore{},
		notifications: &mockNotificationStore{},
		events:        &mockEventPublisher{},
	}
	f.svc = NewService(ServiceDeps{
		CompanyRepo:      f.companies,
		JobRepo:          f.jobs,
		ApplicationRepo:  f.applications,
		NotificationRepo: f.notifications,
		Events:           f.events,
	})
	return f
}

func ptr[T any](v T) *T { return &v }

func activeCompany() *domain.Company {
	return &domain.Company{CompanyID: "c1", Name: "Acme", CreatedBy: "owner1", Enable: true}
}

func activeJob() *domain.Job {
	return &domain.Job{
		JobID:     "j1",
		CompanyID: "c1",
		PostedBy:  "owner1",
		Title:     "Go Engineer",
		Enable:    true,
	}
}

func baseJobReq() domain.CreateJobRequest {
	return domain.CreateJobRequest{
		CompanyID:       "c1",
		Title:           "Go Engineer",
		Description:     "Build backend services.",
		EmploymentType:  domain.EmploymentFullTime,
		ExperienceLevel: domain.ExperienceMid,
	}
}

// --- company tests ---

func TestCreateCompany_HappyPath(t *testing.T) {
	f := newFixture()
	f.companies.On("Put", mock.Anything, mock.AnythingOfType("*domain.Company")).Return(nil)

	c, err := f.svc.CreateCompany(context.Background(), "owner1", domain.CreateCompanyRequest{Name: "Acme"})

	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "owner1", c.CreatedBy)
	assert.True(t, c.Enable)
}

func TestUpdateCompany_NonOwnerForbidden(t *testing.T) {
	f := newFixture()
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)

	_, err := f.svc.UpdateCompany(context.Background(), "c1", "intruder", false, domain.CreateCompanyRequest{Name: "Evil"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestUpdateCompany_AdminAllowed(t *testing.T) {
	f := newFixture()
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)
	f.companies.On("Update", mock.Anything, "c1", mock.Anything).Return(nil)

	_, err := f.svc.UpdateCompany(context.Background(), "c1", "admin1", true, domain.CreateCompanyRequest{Name: "Acme v2"})

	require.NoError(t, err)
	f.companies.AssertExpectations(t)
}

// --- job tests ---

func TestCreateJob_CompanyNotFound(t *testing.T) {
	f := newFixture()
	f.companies.On("Get", mock.Anything, "c1").Return(nil, domain.ErrNotFound)

	_, err := f.svc.CreateJob(context.Background(), "owner1", false, baseJobReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateJob_NotCompanyOwner(t *testing.T) {
	f := newFixture()
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)

	_, err := f.svc.CreateJob(context.Background(), "intruder", false, baseJobReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestCreateJob_SalaryRangeInverted(t *testing.T) {
	f := newFixture()
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)

	req := baseJobReq()
	req.SalaryMin = ptr(100000)
	req.SalaryMax = ptr(50000)
	_, err := f.svc.CreateJob(context.Background(), "owner1", false, req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreateJob_BadDeadline(t *testing.T) {
	f := newFixture()
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)

	req := baseJobReq()
	req.Deadline = "31-12-2026"
	_, err := f.svc.CreateJob(context.Background(), "owner1", false, req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreateJob_HappyPath(t *testing.T) {
	f := newFixture()
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)
	f.jobs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Job")).Return(nil)

	req := baseJobReq()
	req.Deadline = "2030-06-30"
	j, err := f.svc.CreateJob(context.Background(), "owner1", false, req)

	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", j.Title)
	assert.Equal(t, "owner1", j.PostedBy)
	require.NotNil(t, j.Deadline)
	assert.Equal(t, 2030, j.Deadline.Year())
	require.NotNil(t, j.Company)
	assert.Equal(t, "Acme", j.Company.Name)
}

func TestGetJob_SoftDeleted(t *testing.T) {
	f := newFixture()
	j := activeJob()
	j.Enable = false
	f.jobs.On("Get", mock.Anything, "j1").Return(j, nil)

	_, err := f.svc.GetJob(context.Background(), "j1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListJobs_AttachesCompanies(t *testing.T) {
	f := newFixture()
	f.jobs.On("ScanPage", mock.Anything, domain.JobFilter{}, int32(50), "").
		Return([]domain.Job{*activeJob(), *activeJob()}, "next", nil)
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil).Once()

	jobs, next, err := f.svc.ListJobs(context.Background(), domain.JobFilter{}, 0, "")

	require.NoError(t, err)
	assert.Equal(t, "next", next)
	require.Len(t, jobs, 2)
	require.NotNil(t, jobs[0].Company)
	require.NotNil(t, jobs[1].Company)
	f.companies.AssertExpectations(t)
}

// --- application tests ---

func TestApply_DeadlinePassed(t *testing.T) {
	f := newFixture()
	j := activeJob()
	past := time.Now().UTC().Add(-24 * time.Hour)
	j.Deadline = &past
	f.jobs.On("Get", mock.Anything, "j1").Return(j, nil)
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)

	_, err := f.svc.Apply(context.Background(), "j1", "applicant1", domain.ApplyRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestApply_OwnJob(t *testing.T) {
	f := newFixture()
	f.jobs.On("Get", mock.Anything, "j1").Return(activeJob(), nil)
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)

	_, err := f.svc.Apply(context.Background(), "j1", "owner1", domain.ApplyRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestApply_Duplicate(t *testing.T) {
	f := newFixture()
	f.jobs.On("Get", mock.Anything, "j1").Return(activeJob(), nil)
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)
	f.applications.On("GetByJobAndApplicant", mock.Anything, "j1", "applicant1").
		Return(&domain.JobApplication{ApplicationID: "a1"}, nil)

	_, err := f.svc.Apply(context.Background(), "j1", "applicant1", domain.ApplyRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

// A failed duplicate lookup must not be read as "no prior application".
func TestApply_DuplicateLookupFailure_Surfaces(t *testing.T) {
	f := newFixture()
	f.jobs.On("Get", mock.Anything, "j1").Return(activeJob(), nil)
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)
	f.applications.On("GetByJobAndApplicant", mock.Anything, "j1", "applicant1").
		Return(nil, errors.New("dynamo unavailable"))

	_, err := f.svc.Apply(context.Background(), "j1", "applicant1", domain.ApplyRequest{})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrConflict))
	f.applications.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestApply_HappyPath_NotifiesAndPublishes(t *testing.T) {
	f := newFixture()
	f.jobs.On("Get", mock.Anything, "j1").Return(activeJob(), nil)
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)
	f.applications.On("GetByJobAndApplicant", mock.Anything, "j1", "applicant1").
		Return(nil, domain.ErrNotFound)
	f.applications.On("Put", mock.Anything, mock.AnythingOfType("*domain.JobApplication")).Return(nil)
	f.notifications.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "owner1" && n.Readed == 0
	})).Return(nil)
	f.events.On("Publish", mock.Anything, EventApplicationReceived, mock.Anything).Return(nil)

	a, err := f.svc.Apply(context.Background(), "j1", "applicant1", domain.ApplyRequest{
		CoverLetter: "I would love this role.",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationPending, a.Status)
	assert.Equal(t, "applicant1", a.ApplicantID)
	f.notifications.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

// Notification or event failures never fail the apply itself.
func TestApply_NotificationFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.jobs.On("Get", mock.Anything, "j1").Return(activeJob(), nil)
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)
	f.applications.On("GetByJobAndApplicant", mock.Anything, "j1", "applicant1").
		Return(nil, domain.ErrNotFound)
	f.applications.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.notifications.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo error"))
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sns error"))

	_, err := f.svc.Apply(context.Background(), "j1", "applicant1", domain.ApplyRequest{})

	require.NoError(t, err)
}

func TestListJobApplications_NonOwnerForbidden(t *testing.T) {
	f := newFixture()
	f.jobs.On("Get", mock.Anything, "j1").Return(activeJob(), nil)
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)

	_, err := f.svc.ListJobApplications(context.Background(), "j1", "intruder", false)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestUpdateApplication_HappyPath(t *testing.T) {
	f := newFixture()
	app := &domain.JobApplication{
		ApplicationID: "a1",
		JobID:         "j1",
		ApplicantID:   "applicant1",
		Status:        domain.ApplicationPending,
	}
	f.applications.On("Get", mock.Anything, "a1").Return(app, nil)
	f.jobs.On("Get", mock.Anything, "j1").Return(activeJob(), nil)
	f.companies.On("Get", mock.Anything, "c1").Return(activeCompany(), nil)
	f.applications.On("Update", mock.Anything, "a1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		return updates[fieldStatus] == domain.ApplicationAccepted && updates[fieldReviewedAt] != nil
	})).Return(nil)
	f.notifications.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "applicant1"
	})).Return(nil)
	f.events.On("Publish", mock.Anything, EventApplicationUpdated, mock.Anything).Return(nil)

	a, err := f.svc.UpdateApplication(context.Background(), "a1", "owner1", false, domain.UpdateApplicationRequest{
		Status: domain.ApplicationAccepted,
	})

	require.NoError(t, err)
	assert.Equal(t, "a1", a.ApplicationID)
	f.applications.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobboard-api/internal/domain"
	"github.com/jobboard-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldCompanyName = "name"
	fieldDescription = "description"
	fieldWebsite     = "website"
	fieldIndustry    = "industry"
	fieldSize        = "size"
	fieldLocation    = "location"

	fieldTitle           = "title"
	fieldJobDescription  = "description"
	fieldRequirements    = "requirements"
	fieldSalaryMin       = "salary_min"
	fieldSalaryMax       = "salary_max"
	fieldEmploymentType  = "employment_type"
	fieldExperienceLevel = "experience_level"
	fieldRemoteWork      = "remote_work"
	fieldDeadline        = "deadline"
	fieldEnable          = "enable"

	fieldStatus     = "status"
	fieldNotes      = "notes"
	fieldReviewedAt = "reviewed_at"
)

// Event types published to the events topic.
const (
	EventApplicationReceived = "application.received"
	EventApplicationUpdated  = "application.status_changed"
)

type Service interface {
	CreateCompany(ctx context.Context, creatorID string, req domain.CreateCompanyRequest) (*domain.Company, error)
	GetCompany(ctx context.Context, companyID string) (*domain.Company, error)
	ListCompanies(ctx context.Context, limit int, cursor string) ([]domain.Company, string, error)
	UpdateCompany(ctx context.Context, companyID, requesterID string, isAdmin bool, req domain.CreateCompanyRequest) (*domain.Company, error)

	CreateJob(ctx context.Context, posterID string, isAdmin bool, req domain.CreateJobRequest) (*domain.Job, error)
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	ListJobs(ctx context.Context, filter domain.JobFilter, limit int, cursor string) ([]domain.Job, string, error)
	UpdateJob(ctx context.Context, jobID, requesterID string, isAdmin bool, req domain.UpdateJobRequest) (*domain.Job, error)
	DeleteJob(ctx context.Context, jobID, requesterID string, isAdmin bool) error

	Apply(ctx context.Context, jobID, applicantID string, req domain.ApplyRequest) (*domain.JobApplication, error)
	ListJobApplications(ctx context.Context, jobID, requesterID string, isAdmin bool) ([]domain.JobApplication, error)
	ListMyApplications(ctx context.Context, applicantID string) ([]domain.JobApplication, error)
	UpdateApplication(ctx context.Context, applicationID, requesterID string, isAdmin bool, req domain.UpdateApplicationRequest) (*domain.JobApplication, error)
}

type companyStore interface {
	Put(ctx context.Context, c *domain.Company) error
	Get(ctx context.Context, companyID string) (*domain.Company, error)
	Update(ctx context.Context, companyID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Company, string, error)
}

type jobStore interface {
	Put(ctx context.Context, j *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	Update(ctx context.Context, jobID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, jobID string) error
	ScanPage(ctx context.Context, f domain.JobFilter, limit int32, cursor string) ([]domain.Job, string, error)
}

type applicationStore interface {
	Put(ctx context.Context, a *domain.JobApplication) error
	Get(ctx context.Context, applicationID string) (*domain.JobApplication, error)
	GetByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*domain.JobApplication, error)
	ListByJob(ctx context.Context, jobID string) ([]domain.JobApplication, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]domain.JobApplication, error)
	Update(ctx context.Context, applicationID string, updates map[string]interface{}) error
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type service struct {
	companyRepo      companyStore
	jobRepo          jobStore
	applicationRepo  applicationStore
	notificationRepo notificationStore
	events           eventPublisher
}

type ServiceDeps struct {
	CompanyRepo      companyStore
	JobRepo          jobStore
	ApplicationRepo  applicationStore
	NotificationRepo notificationStore
	Events           eventPublisher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		companyRepo:      deps.CompanyRepo,
		jobRepo:          deps.JobRepo,
		applicationRepo:  deps.ApplicationRepo,
		notificationRepo: deps.NotificationRepo,
		events:           deps.Events,
	}
}

func (s *service) CreateCompany(ctx context.Context, creatorID string, req domain.CreateCompanyRequest) (*domain.Company, error) {
	now := time.Now().UTC()
	c := &domain.Company{
		CompanyID:   id.New(),
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
		Industry:    req.Industry,
		Size:        req.Size,
		Location:    req.Location,
		CreatedBy:   creatorID,
		Enable:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.companyRepo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	c, err := s.companyRepo.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !c.Enable {
		return nil, fmt.Errorf("company not found: %w", domain.ErrNotFound)
	}
	return c, nil
}

func (s *service) ListCompanies(ctx context.Context, limit int, cursor string) ([]domain.Company, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.companyRepo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) UpdateCompany(ctx context.Context, companyID, requesterID string, isAdmin bool, req domain.CreateCompanyRequest) (*domain.Company, error) {
	c, err := s.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if c.CreatedBy != requesterID && !isAdmin {
		return nil, fmt.Errorf("only the company owner may update it: %w", domain.ErrForbidden)
	}
	updates := map[string]interface{}{
		fieldCompanyName: req.Name,
		fieldDescription: req.Description,
		fieldWebsite:     req.Website,
		fieldIndustry:    req.Industry,
		fieldSize:        req.Size,
		fieldLocation:    req.Location,
	}
	if err := s.companyRepo.Update(ctx, companyID, updates); err != nil {
		return nil, err
	}
	return s.companyRepo.Get(ctx, companyID)
}

func (s *service) CreateJob(ctx context.Context, posterID string, isAdmin bool, req domain.CreateJobRequest) (*domain.Job, error) {
	c, err := s.GetCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("company not found: %w", domain.ErrNotFound)
	}
	if c.CreatedBy != posterID && !isAdmin {
		return nil, fmt.Errorf("only the company owner may post jobs: %w", domain.ErrForbidden)
	}
	if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMin > *req.SalaryMax {
		return nil, fmt.Errorf("salary_min cannot exceed salary_max: %w", domain.ErrBadRequest)
	}
	var deadline *time.Time
	if req.Deadline != "" {
		t, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			return nil, fmt.Errorf("application_deadline must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
		}
		deadline = &t
	}
	now := time.Now().UTC()
	j := &domain.Job{
		JobID:           id.New(),
		CompanyID:       req.CompanyID,
		PostedBy:        posterID,
		Title:           req.Title,
		Description:     req.Description,
		Requirements:    req.Requirements,
		Location:        req.Location,
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
		EmploymentType:  req.EmploymentType,
		ExperienceLevel: req.ExperienceLevel,
		RemoteWork:      req.RemoteWork,
		Deadline:        deadline,
		Enable:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.jobRepo.Put(ctx, j); err != nil {
		return nil, err
	}
	j.Company = c
	return j, nil
}

func (s *service) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	j, err := s.jobRepo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !j.Enable {
		return nil, fmt.Errorf("job not found: %w", domain.ErrNotFound)
	}
	if c, err := s.companyRepo.Get(ctx, j.CompanyID); err == nil {
		j.Company = c
	}
	return j, nil
}

func (s *service) ListJobs(ctx context.Context, filter domain.JobFilter, limit int, cursor string) ([]domain.Job, string, error) {
	if limit < 1 {
		limit = 50
	}
	jobs, next, err := s.jobRepo.ScanPage(ctx, filter, int32(limit), cursor)
	if err != nil {
		return nil, "", err
	}
	// Batch the company lookups per page; listings share companies heavily.
	companies := map[string]*domain.Company{}
	for i := range jobs {
		c, ok := companies[jobs[i].CompanyID]
		if !ok {
			c, err = s.companyRepo.Get(ctx, jobs[i].CompanyID)
			if err != nil {
				continue
			}
			companies[jobs[i].CompanyID] = c
		}
		jobs[i].Company = c
	}
	return jobs, next, nil
}

func (s *service) UpdateJob(ctx context.Context, jobID, requesterID string, isAdmin bool, req domain.UpdateJobRequest) (*domain.Job, error) {
	j, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.requireJobOwner(ctx, j, requesterID, isAdmin); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Description != nil {
		updates[fieldJobDescription] = *req.Description
	}
	if req.Requirements != nil {
		updates[fieldRequirements] = *req.Requirements
	}
	if req.Location != nil {
		updates[fieldLocation] = *req.Location
	}
	if req.SalaryMin != nil {
		updates[fieldSalaryMin] = *req.SalaryMin
	}
	if req.SalaryMax != nil {
		updates[fieldSalaryMax] = *req.SalaryMax
	}
	min, max := j.SalaryMin, j.SalaryMax
	if req.SalaryMin != nil {
		min = req.SalaryMin
	}
	if req.SalaryMax != nil {
		max = req.SalaryMax
	}
	if min != nil && max != nil && *min > *max {
		return nil, fmt.Errorf("salary_min cannot exceed salary_max: %w", domain.ErrBadRequest)
	}
	if req.EmploymentType != nil {
		updates[fieldEmploymentType] = *req.EmploymentType
	}
	if req.ExperienceLevel != nil {
		updates[fieldExperienceLevel] = *req.ExperienceLevel
	}
	if req.RemoteWork != nil {
		updates[fieldRemoteWork] = *req.RemoteWork
	}
	if req.Deadline != nil {
		t, err := time.Parse("2006-01-02", *req.Deadline)
		if err != nil {
			return nil, fmt.Errorf("application_deadline must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
		}
		updates[fieldDeadline] = t
	}
	if req.Enable != nil {
		updates[fieldEnable] = *req.Enable
	}
	if len(updates) == 0 {
		return j, nil
	}
	if err := s.jobRepo.Update(ctx, jobID, updates); err != nil {
		return nil, err
	}
	return s.GetJob(ctx, jobID)
}

func (s *service) DeleteJob(ctx context.Context, jobID, requesterID string, isAdmin bool) error {
	j, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if err := s.requireJobOwner(ctx, j, requesterID, isAdmin); err != nil {
		return err
	}
	return s.jobRepo.SoftDelete(ctx, jobID)
}

func (s *service) Apply(ctx context.Context, jobID, applicantID string, req domain.ApplyRequest) (*domain.JobApplication, error) {
	j, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.Deadline != nil && j.Deadline.Before(time.Now().UTC()) {
		return nil, fmt.Errorf("application deadline has passed: %w", domain.ErrBadRequest)
	}
	if j.PostedBy == applicantID {
		return nil, fmt.Errorf("cannot apply to your own job posting: %w", domain.ErrBadRequest)
	}
	switch _, err := s.applicationRepo.GetByJobAndApplicant(ctx, jobID, applicantID); {
	case err == nil:
		return nil, fmt.Errorf("you have already applied to this job: %w", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	a := &domain.JobApplication{
		ApplicationID: id.New(),
		JobID:         jobID,
		ApplicantID:   applicantID,
		CoverLetter:   req.CoverLetter,
		ResumeURL:     req.ResumeURL,
		Status:        domain.ApplicationPending,
		AppliedAt:     time.Now().UTC(),
	}
	if err := s.applicationRepo.Put(ctx, a); err != nil {
		return nil, err
	}
	a.Job = j

	s.notify(ctx, j.PostedBy, "New application",
		fmt.Sprintf("A candidate applied to %q.", j.Title))
	s.publish(ctx, EventApplicationReceived, map[string]string{
		"application_id": a.ApplicationID,
		"job_id":         jobID,
		"applicant_id":   applicantID,
	})
	return a, nil
}

func (s *service) ListJobApplications(ctx context.Context, jobID, requesterID string, isAdmin bool) ([]domain.JobApplication, error) {
	j, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.requireJobOwner(ctx, j, requesterID, isAdmin); err != nil {
		return nil, err
	}
	return s.applicationRepo.ListByJob(ctx, jobID)
}

func (s *service) ListMyApplications(ctx context.Context, applicantID string) ([]domain.JobApplication, error) {
	apps, err := s.applicationRepo.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if j, err := s.GetJob(ctx, apps[i].JobID); err == nil {
			apps[i].Job = j
		}
	}
	return apps, nil
}

func (s *service) UpdateApplication(ctx context.Context, applicationID, requesterID string, isAdmin bool, req domain.UpdateApplicationRequest) (*domain.JobApplication, error) {
	a, err := s.applicationRepo.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	j, err := s.GetJob(ctx, a.JobID)
	if err != nil {
		return nil, err
	}
	if err := s.requireJobOwner(ctx, j, requesterID, isAdmin); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		fieldStatus:     req.Status,
		fieldReviewedAt: now,
	}
	if req.Notes != "" {
		updates[fieldNotes] = req.Notes
	}
	if err := s.applicationRepo.Update(ctx, applicationID, updates); err != nil {
		return nil, err
	}

	s.notify(ctx, a.ApplicantID, "Application update",
		fmt.Sprintf("Your application for %q is now %s.", j.Title, req.Status))
	s.publish(ctx, EventApplicationUpdated, map[string]string{
		"application_id": applicationID,
		"job_id":         a.JobID,
		"applicant_id":   a.ApplicantID,
		"status":         req.Status,
	})

	a, err = s.applicationRepo.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	a.Job = j
	return a, nil
}

// requireJobOwner allows the job poster, the owner of the job's company, and admins.
func (s *service) requireJobOwner(ctx context.Context, j *domain.Job, requesterID string, isAdmin bool) error {
	if isAdmin || j.PostedBy == requesterID {
		return nil
	}
	if c, err := s.companyRepo.Get(ctx, j.CompanyID); err == nil && c.CreatedBy == requesterID {
		return nil
	}
	return fmt.Errorf("not the owner of this job posting: %w", domain.ErrForbidden)
}

// notify records an in-app notification. Failures are logged, never surfaced:
// the triggering operation has already succeeded.
func (s *service) notify(ctx context.Context, userID, title, message string) {
	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Title:          title,
		Message:        message,
		Readed:         0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.notificationRepo.Put(ctx, n); err != nil {
		slog.Warn("failed to store notification", "user_id", userID, "err", err)
	}
}

// publish emits an event to the topic when a publisher is configured.
func (s *service) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		slog.Warn("failed to publish event", "event_type", eventType, "err", err)
	}
}

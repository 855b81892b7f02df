package domain

import "time"

// Employment types for job postings.
const (
	EmploymentFullTime   = "full-time"
	EmploymentPartTime   = "part-time"
	EmploymentContract   = "contract"
	EmploymentInternship = "internship"
	EmploymentFreelance  = "freelance"
)

// Experience levels for job postings.
const (
	ExperienceEntry     = "entry"
	ExperienceMid       = "mid"
	ExperienceSenior    = "senior"
	ExperienceExecutive = "executive"
)

// Application statuses. Pending is the initial state; the company owner moves
// an application through reviewed and into accepted or rejected.
const (
	ApplicationPending  = "pending"
	ApplicationReviewed = "reviewed"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

type Company struct {
	CompanyID   string    `json:"id" dynamodbav:"company_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Description string    `json:"description,omitempty" dynamodbav:"description"`
	Website     string    `json:"website,omitempty" dynamodbav:"website"`
	Industry    string    `json:"industry,omitempty" dynamodbav:"industry"`
	Size        string    `json:"size,omitempty" dynamodbav:"size"`
	Location    string    `json:"location,omitempty" dynamodbav:"location"`
	CreatedBy   string    `json:"created_by" dynamodbav:"created_by"`
	Enable      bool      `json:"-" dynamodbav:"enable"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type CreateCompanyRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description"`
	Website     string `json:"website" validate:"omitempty,max=255"`
	Industry    string `json:"industry" validate:"omitempty,max=100"`
	Size        string `json:"size" validate:"omitempty,max=50"`
	Location    string `json:"location" validate:"omitempty,max=255"`
}

type Job struct {
	JobID           string     `json:"id" dynamodbav:"job_id"`
	CompanyID       string     `json:"company_id" dynamodbav:"company_id"`
	PostedBy        string     `json:"posted_by" dynamodbav:"posted_by"`
	Title           string     `json:"title" dynamodbav:"title"`
	Description     string     `json:"description" dynamodbav:"description"`
	Requirements    string     `json:"requirements,omitempty" dynamodbav:"requirements"`
	Location        string     `json:"location,omitempty" dynamodbav:"location"`
	SalaryMin       *int       `json:"salary_min,omitempty" dynamodbav:"salary_min"`
	SalaryMax       *int       `json:"salary_max,omitempty" dynamodbav:"salary_max"`
	EmploymentType  string     `json:"employment_type" dynamodbav:"employment_type"`
	ExperienceLevel string     `json:"experience_level" dynamodbav:"experience_level"`
	RemoteWork      bool       `json:"remote_work" dynamodbav:"remote_work"`
	Deadline        *time.Time `json:"application_deadline,omitempty" dynamodbav:"deadline"`
	Enable          bool       `json:"is_active" dynamodbav:"enable"`
	CreatedAt       time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" dynamodbav:"updated_at"`
	Company         *Company   `json:"company,omitempty" dynamodbav:"-"`
}

type CreateJobRequest struct {
	CompanyID       string `json:"company_id" validate:"required"`
	Title           string `json:"title" validate:"required,min=1,max=255"`
	Description     string `json:"description" validate:"required,min=1"`
	Requirements    string `json:"requirements"`
	Location        string `json:"location" validate:"omitempty,max=255"`
	SalaryMin       *int   `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax       *int   `json:"salary_max" validate:"omitempty,gte=0"`
	EmploymentType  string `json:"employment_type" validate:"required,oneof=full-time part-time contract internship freelance"`
	ExperienceLevel string `json:"experience_level" validate:"required,oneof=entry mid senior executive"`
	RemoteWork      bool   `json:"remote_work"`
	Deadline        string `json:"application_deadline"` // expected format: YYYY-MM-DD
}

type UpdateJobRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description     *string `json:"description" validate:"omitempty,min=1"`
	Requirements    *string `json:"requirements"`
	Location        *string `json:"location" validate:"omitempty,max=255"`
	SalaryMin       *int    `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax       *int    `json:"salary_max" validate:"omitempty,gte=0"`
	EmploymentType  *string `json:"employment_type" validate:"omitempty,oneof=full-time part-time contract internship freelance"`
	ExperienceLevel *string `json:"experience_level" validate:"omitempty,oneof=entry mid senior executive"`
	RemoteWork      *bool   `json:"remote_work"`
	Deadline        *string `json:"application_deadline"`
	Enable          *bool   `json:"is_active"`
}

// JobFilter carries the listing query parameters straight to the store.
type JobFilter struct {
	Query           string
	Location        string
	EmploymentType  string
	ExperienceLevel string
	RemoteOnly      bool
	CompanyID       string
}

type JobApplication struct {
	ApplicationID string     `json:"id" dynamodbav:"application_id"`
	JobID         string     `json:"job_id" dynamodbav:"job_id"`
	ApplicantID   string     `json:"applicant_id" dynamodbav:"applicant_id"`
	CoverLetter   string     `json:"cover_letter,omitempty" dynamodbav:"cover_letter"`
	ResumeURL     string     `json:"resume_url,omitempty" dynamodbav:"resume_url"`
	Status        string     `json:"status" dynamodbav:"status"`
	Notes         string     `json:"notes,omitempty" dynamodbav:"notes"`
	AppliedAt     time.Time  `json:"applied_at" dynamodbav:"applied_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty" dynamodbav:"reviewed_at"`
	Job           *Job       `json:"job,omitempty" dynamodbav:"-"`
}

type ApplyRequest struct {
	CoverLetter string `json:"cover_letter"`
	ResumeURL   string `json:"resume_url" validate:"omitempty,max=500,url"`
}

type UpdateApplicationRequest struct {
	Status string `json:"status" validate:"required,oneof=pending reviewed accepted rejected"`
	Notes  string `json:"notes"`
}

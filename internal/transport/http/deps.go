package http

import (
	"github.com/jobboard-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/jobboard-api/internal/infrastructure/jwt"
	s3infra "github.com/jobboard-api/internal/infrastructure/s3"
	"github.com/jobboard-api/internal/infrastructure/smtp"
	"github.com/jobboard-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
// S3Store, Events, and JWTProvider may be nil; the affected routes then
// degrade (503 for file storage, events silently skipped, auth rejected).
type Deps struct {
	UserRepo         *dynamo.UserRepo
	OTPRepo          *dynamo.OTPRepo
	FileRepo         *dynamo.FileRepo
	CompanyRepo      *dynamo.CompanyRepo
	JobRepo          *dynamo.JobRepo
	ApplicationRepo  *dynamo.ApplicationRepo
	NotificationRepo *dynamo.NotificationRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	Events           sns.EventPublisher
	JWTProvider      *jwtinfra.Provider
}

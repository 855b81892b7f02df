package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jobboard-api/internal/config"
	"github.com/jobboard-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/jobboard-api/internal/infrastructure/jwt"
	s3infra "github.com/jobboard-api/internal/infrastructure/s3"
	"github.com/jobboard-api/internal/infrastructure/smtp"
	"github.com/jobboard-api/internal/infrastructure/sns"
	transporthttp "github.com/jobboard-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — auth routes report 503 if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// Object store (optional — file routes report 503 without a bucket).
	var s3Store *s3infra.Store
	if cfg.S3BucketName != "" {
		s3Store = s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)
	} else {
		log.Println("WARN: S3_BUCKET_NAME not set, file storage disabled")
	}

	// SMTP mailer for verification codes.
	mailer := smtp.NewMailer(cfg)

	// SNS event publisher (optional — application events are skipped without it).
	var events sns.EventPublisher
	if cfg.SNSTopicARN != "" {
		if pub, err := sns.NewPublisher(cfg); err == nil {
			events = pub
		} else {
			log.Printf("WARN: SNS publisher not available: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		OTPRepo:          dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.EmailOTPs),
		FileRepo:         dynamo.NewFileRepo(dynamoClient, cfg.DynamoTables.Files),
		CompanyRepo:      dynamo.NewCompanyRepo(dynamoClient, cfg.DynamoTables.Companies),
		JobRepo:          dynamo.NewJobRepo(dynamoClient, cfg.DynamoTables.Jobs),
		ApplicationRepo:  dynamo.NewApplicationRepo(dynamoClient, cfg.DynamoTables.Applications),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		S3Store:          s3Store,
		Mailer:           mailer,
		Events:           events,
		JWTProvider:      jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

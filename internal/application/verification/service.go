package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/jobboard-api/internal/domain"
	"github.com/jobboard-api/internal/pkg/id"
)

// SendResult reports the outcome of issuing a code. Delivered is false when
// the code was recorded but the email could not be sent; the caller still
// treats the request as accepted and the user can ask for a resend.
type SendResult struct {
	Delivered bool      `json:"delivered"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service interface {
	Send(ctx context.Context, email string) (*SendResult, error)
	Verify(ctx context.Context, email, code string) error
	Resend(ctx context.Context, email string) (*SendResult, error)
}

type otpStore interface {
	IssueCode(ctx context.Context, rec *domain.EmailOTP) error
	FindUnused(ctx context.Context, email, code string) (*domain.EmailOTP, error)
	MarkUsed(ctx context.Context, otpID string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	otpRepo  otpStore
	userRepo userStore
	mailer   mailer
	expiry   time.Duration
}

type ServiceDeps struct {
	OTPRepo  otpStore
	UserRepo userStore
	Mailer   mailer
	Expiry   time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		otpRepo:  deps.OTPRepo,
		userRepo: deps.UserRepo,
		mailer:   deps.Mailer,
		expiry:   deps.Expiry,
	}
}

// Send issues a fresh code for the address, superseding any outstanding ones,
// and emails it. A delivery failure does not roll the code back: the record
// stays valid and the response flags delivered=false.
func (s *service) Send(ctx context.Context, email string) (*SendResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.EmailVerified {
		return nil, fmt.Errorf("email already verified: %w", domain.ErrConflict)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.expiry)
	rec := &domain.EmailOTP{
		OTPID:     id.New(),
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt.Unix(),
		Used:      false,
		CreatedAt: now,
	}
	if err := s.otpRepo.IssueCode(ctx, rec); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.expiry.Minutes()))
	if err := s.mailer.SendEmail(email, "Verify your email", body); err != nil {
		slog.Warn("otp email delivery failed", "email", email, "err", err)
		return &SendResult{Delivered: false, ExpiresAt: expiresAt}, nil
	}
	return &SendResult{Delivered: true, ExpiresAt: expiresAt}, nil
}

// Verify consumes the newest matching unused code. Both success and the
// expired case flip the record to used, so a code can never be tried twice.
func (s *service) Verify(ctx context.Context, email, code string) error {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}

	// No verified-already precheck: once the code is consumed the ledger
	// lookup fails, so a replay reports an invalid code.
	rec, err := s.otpRepo.FindUnused(ctx, email, code)
	if err != nil {
		return fmt.Errorf("invalid verification code: %w", domain.ErrBadRequest)
	}
	if rec.Expired(time.Now().UTC()) {
		if err := s.otpRepo.MarkUsed(ctx, rec.OTPID); err != nil {
			slog.Warn("failed to mark expired otp as used", "otp_id", rec.OTPID, "err", err)
		}
		return fmt.Errorf("verification code expired: %w", domain.ErrBadRequest)
	}
	if err := s.otpRepo.MarkUsed(ctx, rec.OTPID); err != nil {
		return err
	}
	return s.userRepo.Update(ctx, u.UserID, map[string]interface{}{"email_verified": true})
}

// Resend behaves exactly like Send; the ledger supersedes the previous code.
func (s *service) Resend(ctx context.Context, email string) (*SendResult, error) {
	return s.Send(ctx, email)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

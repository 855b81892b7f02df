package user

import (
	"context"
	"fmt"
	"time"

	"github.com/jobboard-api/internal/domain"
	"github.com/jobboard-api/internal/pkg/id"
	"github.com/jobboard-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldName          = "name"
	fieldEmail         = "email"
	fieldRole          = "role"
	fieldEmailVerified = "email_verified"
	fieldPasswordHash  = "password_hash"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type jwtSigner interface {
	Sign(userID, email, role string) (string, error)
}

type service struct {
	repo        userStore
	jwtProvider jwtSigner
}

type ServiceDeps struct {
	UserRepo    userStore
	JWTProvider jwtSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:        deps.UserRepo,
		jwtProvider: deps.JWTProvider,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validate.Password(req.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:        id.New(),
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  string(hash),
		Role:          role,
		EmailVerified: false,
		Enable:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks the credentials and, on success, returns the user
// together with a signed bearer token. Unknown emails and wrong passwords
// produce the same error so callers cannot probe for registered addresses.
func (s *service) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return nil, "", fmt.Errorf("account is disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if s.jwtProvider == nil {
		return nil, "", fmt.Errorf("token signing not configured: %w", domain.ErrUnavailable)
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, bearer, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Enable {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[fieldName] = *req.Name
	}
	if req.Email != nil {
		existing, err := s.repo.GetByEmail(ctx, *req.Email)
		if err == nil && existing.UserID != userID {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		updates[fieldEmail] = *req.Email
		// A new address has to be verified again.
		updates[fieldEmailVerified] = false
	}
	if req.Role != nil {
		if !domain.ValidRole(*req.Role) {
			return nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
		}
		updates[fieldRole] = *req.Role
	}
	if len(updates) == 0 {
		return s.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	if err := validate.Password(newPassword); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

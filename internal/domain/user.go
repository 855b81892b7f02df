package domain

import "time"

type User struct {
	UserID        string     `json:"id" dynamodbav:"user_id"`
	Name          string     `json:"name" dynamodbav:"name"`
	Email         string     `json:"email" dynamodbav:"email"`
	PasswordHash  string     `json:"-" dynamodbav:"password_hash"`
	Role          string     `json:"role" dynamodbav:"role"`
	EmailVerified bool       `json:"is_email_verified" dynamodbav:"email_verified"`
	Enable        bool       `json:"is_active" dynamodbav:"enable"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt     time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user company"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,oneof=admin user company"`
}

package domain

import "time"

// EmailOTP is one entry in the one-time-code ledger.
// Records are never deleted by the application: every prior unused record for
// an email is flipped to used when a new code is issued, so at most one
// unused, unexpired record is valid per email at a time. ExpiresAt doubles as
// the DynamoDB TTL attribute, which eventually reaps consumed rows.
type EmailOTP struct {
	OTPID     string    `json:"id" dynamodbav:"otp_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"-" dynamodbav:"code"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds, also table TTL
	Used      bool      `json:"used" dynamodbav:"used"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Expired reports whether the code's validity window has passed at now.
func (o *EmailOTP) Expired(now time.Time) bool {
	return o.ExpiresAt < now.Unix()
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"otp_code" validate:"required,len=6,numeric"`
}

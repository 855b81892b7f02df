package domain

import "time"

// File type categories derived from the detected content type.
const (
	FileTypeImage    = "image"
	FileTypeVideo    = "video"
	FileTypeAudio    = "audio"
	FileTypeDocument = "document"
	FileTypeOther    = "other"
)

type File struct {
	FileID       string    `json:"id" dynamodbav:"file_id"`
	Object       string    `json:"object" dynamodbav:"object"` // storage key in the bucket
	Name         string    `json:"file_name" dynamodbav:"name"`
	OriginalName string    `json:"original_name" dynamodbav:"original_name"`
	Size         int64     `json:"file_size" dynamodbav:"size"`
	ContentType  string    `json:"content_type" dynamodbav:"content_type"`
	FileType     string    `json:"file_type" dynamodbav:"file_type"`
	Description  string    `json:"description,omitempty" dynamodbav:"description"`
	Tags         []string  `json:"tags,omitempty" dynamodbav:"tags"`
	IsPublic     bool      `json:"is_public" dynamodbav:"is_public"`
	OwnerID      string    `json:"uploaded_by" dynamodbav:"owner_id"`
	URL          string    `json:"file_url,omitempty" dynamodbav:"-"` // presigned, computed per request
	Enable       bool      `json:"-" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"uploaded_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type UpdateFileRequest struct {
	Name        *string   `json:"file_name" validate:"omitempty,min=1"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	IsPublic    *bool     `json:"is_public"`
}

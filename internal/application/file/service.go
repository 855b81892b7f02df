package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jobboard-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFileName    = "name"
	fieldDescription = "description"
	fieldTags        = "tags"
	fieldIsPublic    = "is_public"
)

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	Size        int64
	Description string
	Tags        []string
	IsPublic    bool
	OwnerID     string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.File, error)
	GetInfo(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error)
	Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error)
	ListForOwner(ctx context.Context, ownerID, fileType string, limit int, cursor string) ([]domain.File, string, error)
	UpdateMetadata(ctx context.Context, fileID, requesterID string, isAdmin bool, req domain.UpdateFileRequest) (*domain.File, error)
	Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error
}

type fileStore interface {
	Put(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, fileID string) (*domain.File, error)
	Update(ctx context.Context, fileID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, fileID string) error
	QueryByOwner(ctx context.Context, ownerID, fileType string, limit int32, cursor string) ([]domain.File, string, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string, metadata map[string]string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	objects   objectStore
	fileRepo  fileStore
	maxBytes  int64
	urlExpiry time.Duration
}

type ServiceDeps struct {
	Objects   objectStore
	FileRepo  fileStore
	MaxBytes  int64
	URLExpiry time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		objects:   deps.Objects,
		fileRepo:  deps.FileRepo,
		maxBytes:  deps.MaxBytes,
		urlExpiry: deps.URLExpiry,
	}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	if s.objects == nil {
		return nil, fmt.Errorf("file storage is not configured: %w", domain.ErrUnavailable)
	}
	if input.Size > s.maxBytes {
		return nil, fmt.Errorf("file exceeds the %d byte limit: %w", s.maxBytes, domain.ErrBadRequest)
	}

	safeName := sanitizeFilename(input.Filename)
	// Sniff the real content type from the first bytes; fall back to the
	// extension when the signature is inconclusive.
	head := make([]byte, 512)
	n, err := io.ReadFull(input.Reader, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	contentType := http.DetectContentType(head[:n])
	if contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(safeName))); byExt != "" {
			contentType = byExt
		}
	}
	body := io.MultiReader(bytes.NewReader(head[:n]), input.Reader)

	now := time.Now().UTC()
	fileID := uuid.NewString()
	key := fmt.Sprintf("files/%s/%s%s", now.Format("2006/01/02"), fileID, strings.ToLower(path.Ext(safeName)))
	meta := map[string]string{
		"file_id":     fileID,
		"uploaded_by": input.OwnerID,
	}
	if err := s.objects.Upload(ctx, key, body, contentType, meta); err != nil {
		return nil, err
	}

	f := &domain.File{
		FileID:       fileID,
		Object:       key,
		Name:         safeName,
		OriginalName: input.Filename,
		Size:         input.Size,
		ContentType:  contentType,
		FileType:     fileTypeOf(contentType),
		Description:  input.Description,
		Tags:         input.Tags,
		IsPublic:     input.IsPublic,
		OwnerID:      input.OwnerID,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.fileRepo.Put(ctx, f); err != nil {
		return nil, err
	}
	s.attachURL(ctx, f)
	return f, nil
}

func (s *service) GetInfo(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error) {
	f, err := s.authorized(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}
	s.attachURL(ctx, f)
	return f, nil
}

func (s *service) Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error) {
	if s.objects == nil {
		return nil, nil, fmt.Errorf("file storage is not configured: %w", domain.ErrUnavailable)
	}
	f, err := s.authorized(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.Download(ctx, f.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}

func (s *service) ListForOwner(ctx context.Context, ownerID, fileType string, limit int, cursor string) ([]domain.File, string, error) {
	if limit < 1 {
		limit = 50
	}
	files, next, err := s.fileRepo.QueryByOwner(ctx, ownerID, fileType, int32(limit), cursor)
	if err != nil {
		return nil, "", err
	}
	for i := range files {
		s.attachURL(ctx, &files[i])
	}
	return files, next, nil
}

func (s *service) UpdateMetadata(ctx context.Context, fileID, requesterID string, isAdmin bool, req domain.UpdateFileRequest) (*domain.File, error) {
	if _, err := s.owned(ctx, fileID, requesterID, isAdmin); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[fieldFileName] = sanitizeFilename(*req.Name)
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.Tags != nil {
		updates[fieldTags] = *req.Tags
	}
	if req.IsPublic != nil {
		updates[fieldIsPublic] = *req.IsPublic
	}
	if len(updates) > 0 {
		if err := s.fileRepo.Update(ctx, fileID, updates); err != nil {
			return nil, err
		}
	}
	f, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	s.attachURL(ctx, f)
	return f, nil
}

func (s *service) Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error {
	f, err := s.owned(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return err
	}
	// Object removal is best-effort; the record is the source of truth.
	if s.objects != nil {
		if err := s.objects.Delete(ctx, f.Object); err != nil {
			slog.Warn("failed to delete object", "file_id", fileID, "key", f.Object, "err", err)
		}
	}
	return s.fileRepo.SoftDelete(ctx, fileID)
}

// authorized loads the file and applies the read rule: public files are
// visible to everyone, private ones to the owner and admins.
func (s *service) authorized(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error) {
	f, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !f.Enable {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	if !f.IsPublic && f.OwnerID != requesterID && !isAdmin {
		return nil, fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return f, nil
}

// owned is the write rule: only the owner and admins may modify or delete.
func (s *service) owned(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error) {
	f, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !f.Enable {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	if f.OwnerID != requesterID && !isAdmin {
		return nil, fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return f, nil
}

func (s *service) attachURL(ctx context.Context, f *domain.File) {
	if s.objects == nil {
		return
	}
	if url, err := s.objects.PresignedURL(ctx, f.Object, s.urlExpiry); err == nil {
		f.URL = url
	}
}

func fileTypeOf(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return domain.FileTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return domain.FileTypeVideo
	case strings.HasPrefix(contentType, "audio/"):
		return domain.FileTypeAudio
	case contentType == "application/pdf",
		strings.HasPrefix(contentType, "text/"),
		strings.Contains(contentType, "msword"),
		strings.Contains(contentType, "officedocument"):
		return domain.FileTypeDocument
	default:
		return domain.FileTypeOther
	}
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in object keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}

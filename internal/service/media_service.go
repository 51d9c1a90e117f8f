package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/media"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/ports"
)

const (
	defaultMediaMaxBytes = int64(10 * 1024 * 1024)
	maxPathAttempts      = 3
)

type MediaServiceConfig struct {
	Bucket            string
	MaxBytes          int64
	ImageProcessor    media.Processor
	ImageMaxDimension int
}

type MediaUpload struct {
	Title       *string
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type StoredMedia struct {
	Media *domain.Media
	URL   string
}

type MediaService struct {
	repo    ports.MediaRepository
	storage ports.ObjectStorage

	bucket            string
	maxBytes          int64
	imageProcessor    media.Processor
	imageMaxDimension int
	now               func() time.Time
}

func NewMediaService(repo ports.MediaRepository, storage ports.ObjectStorage, cfg MediaServiceConfig) *MediaService {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMediaMaxBytes
	}
	maxDimension := cfg.ImageMaxDimension
	if maxDimension <= 0 {
		maxDimension = media.DefaultMaxDimension
	}
	return &MediaService{
		repo:              repo,
		storage:           storage,
		bucket:            strings.TrimSpace(cfg.Bucket),
		maxBytes:          maxBytes,
		imageProcessor:    cfg.ImageProcessor,
		imageMaxDimension: maxDimension,
		now:               time.Now,
	}
}

// Upload stores the file under YYYY-MM-DD/<name>/<file> and records it.
// Images are downscaled first when a processor is configured.
func (s *MediaService) Upload(ctx context.Context, upload MediaUpload) (*StoredMedia, error) {
	fileName := sanitizeFileName(upload.FileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrMediaValidation)
	}
	if upload.Reader == nil || upload.Size == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrMediaValidation)
	}
	if upload.Size > s.maxBytes {
		return nil, ErrMediaTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(upload.Reader, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrMediaTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrMediaValidation)
	}

	contentType := media.DetectContentType(upload.ContentType, fileName, data)
	mediaType := domain.MediaTypeFor(contentType)

	reader := io.Reader(bytes.NewReader(data))
	size := int64(len(data))
	if mediaType == domain.MediaTypeImage && media.Supports(contentType) {
		reader, size, contentType, err = prepareImageForUpload(ctx, s.imageProcessor, media.Upload{
			Reader:      reader,
			Size:        size,
			FileName:    fileName,
			ContentType: contentType,
		}, s.imageMaxDimension)
		if err != nil {
			return nil, err
		}
	}

	record, err := s.reserve(ctx, normalizeString(upload.Title), fileName, mediaType)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.Upload(ctx, s.bucket, record.FilePath, contentType, reader, size)
	if err != nil {
		if delErr := s.repo.Delete(ctx, record.ID); delErr != nil {
			logrus.WithError(delErr).WithField("media_id", record.ID).Warn("failed to remove media record after upload error")
		}
		return nil, err
	}
	return &StoredMedia{Media: record, URL: url}, nil
}

func (s *MediaService) Get(ctx context.Context, id uuid.UUID) (*StoredMedia, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return &StoredMedia{Media: record, URL: s.storage.URL(s.bucket, record.FilePath)}, nil
}

// reserve inserts the media row, picking a fresh path when another upload
// already owns the same one.
func (s *MediaService) reserve(ctx context.Context, title *string, fileName string, mediaType domain.MediaType) (*domain.Media, error) {
	name := fileName
	for attempt := 0; ; attempt++ {
		record, err := s.repo.Create(ctx, title, UploadPath(s.now(), name), mediaType)
		if err == nil {
			return record, nil
		}
		if !isUniqueViolation(err) || attempt+1 >= maxPathAttempts {
			return nil, err
		}
		name, err = suffixedName(fileName)
		if err != nil {
			return nil, err
		}
	}
}

// UploadPath returns the object key for fileName uploaded on day.
func UploadPath(day time.Time, fileName string) string {
	stem := fileName
	if idx := strings.Index(stem, "."); idx >= 0 {
		stem = stem[:idx]
	}
	return fmt.Sprintf("%s/%s/%s", day.Format("2006-01-02"), stem, fileName)
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return ""
	}
	return strings.ReplaceAll(name, " ", "_")
}

func suffixedName(fileName string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	suffix := hex.EncodeToString(buf)
	if idx := strings.Index(fileName, "."); idx >= 0 {
		return fileName[:idx] + "_" + suffix + fileName[idx:], nil
	}
	return fileName + "_" + suffix, nil
}

func prepareImageForUpload(ctx context.Context, processor media.Processor, upload media.Upload, maxDimension int) (io.Reader, int64, string, error) {
	if processor == nil {
		return upload.Reader, upload.Size, upload.ContentType, nil
	}
	result, err := processor.Process(ctx, upload, maxDimension)
	if err != nil {
		return nil, 0, "", err
	}
	return bytes.NewReader(result.Bytes), int64(len(result.Bytes)), result.ContentType, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitpair-backend/internal/config"
	"fitpair-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadExpiry = 5 * time.Minute

var pictureExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/heic": "heic",
	"image/webp": "webp",
}

// UploadPictureRequest represents a request for a profile picture upload URL
type UploadPictureRequest struct {
	ContentType string `json:"contentType" validate:"required,oneof=image/jpeg image/png image/heic image/webp"`
}

// UploadPictureResponse carries the pre-signed upload URL and the public URL
// the picture will be served from
type UploadPictureResponse struct {
	UploadURL  string `json:"uploadUrl"`
	PictureURL string `json:"pictureUrl"`
	ExpiresIn  int    `json:"expiresIn"`
}

// PictureService handles profile picture uploads
type PictureService struct {
	users     repository.UserRepository
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// NewPictureService creates a new picture service
func NewPictureService(ctx context.Context, users repository.UserRepository, cfg *config.AWSConfig) (*PictureService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
	}

	return &PictureService{
		users:     users,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    cfg.S3Bucket,
		publicURL: publicURL,
	}, nil
}

// CreateUploadURL returns a pre-signed PUT URL for a new profile picture and
// stores its public URL on the profile
func (s *PictureService) CreateUploadURL(ctx context.Context, userID, contentType string) (*UploadPictureResponse, error) {
	ext, ok := pictureExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	key := fmt.Sprintf("profile-pictures/%s/%s.%s", userID, uuid.New().String(), ext)

	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	pictureURL := s.publicURL + "/" + key
	if err := s.users.UpdateProfilePicture(ctx, userID, pictureURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile picture: %w", err)
	}

	return &UploadPictureResponse{
		UploadURL:  request.URL,
		PictureURL: pictureURL,
		ExpiresIn:  int(uploadExpiry.Seconds()),
	}, nil
}

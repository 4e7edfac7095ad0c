package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/souschef-app/souschef-api/internal/config"
)

// Store persists cookbook page images in S3 between upload and extraction.
type Store struct {
	Cfg *config.Config
}

// NewStore creates a new Store backed by the bucket in the app config.
func NewStore(cfg *config.Config) *Store {
	return &Store{Cfg: cfg}
}

// newS3Client creates a new S3 client from the app config.
// When AWS access key and secret are provided, static credentials are used;
// otherwise the default credential chain is preserved (IAM role, instance
// profile, etc.) so ECS/EC2 task roles work without explicit keys.
func (s *Store) newS3Client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.Cfg.EnvVars.AWSRegion),
	}

	if s.Cfg.EnvVars.AWSAccessKeyID != "" && s.Cfg.EnvVars.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.Cfg.EnvVars.AWSAccessKeyID,
			s.Cfg.EnvVars.AWSSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %v", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// PageKey generates the storage key for a cookbook page image. Pages are
// numbered from 1.
func PageKey(recipeID uint, pageNum int) string {
	return fmt.Sprintf("%d/page_%d.jpg", recipeID, pageNum)
}

// UploadPage uploads a cookbook page image and returns its storage key.
func (s *Store) UploadPage(ctx context.Context, recipeID uint, pageNum int, imgBytes []byte) (string, error) {
	client, err := s.newS3Client(ctx)
	if err != nil {
		return "", err
	}

	key := PageKey(recipeID, pageNum)
	uploader := manager.NewUploader(client)

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Cfg.EnvVars.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(imgBytes),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload page to S3: %v", err)
	}

	return key, nil
}

// DownloadPage fetches a cookbook page image by its storage key.
func (s *Store) DownloadPage(ctx context.Context, key string) ([]byte, error) {
	client, err := s.newS3Client(ctx)
	if err != nil {
		return nil, err
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Cfg.EnvVars.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download page from S3: %v", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %v", err)
	}

	return data, nil
}

// DeletePages deletes the given page objects. Used as the compensating
// action when an extraction fails after upload.
func (s *Store) DeletePages(ctx context.Context, keys []string) error {
	client, err := s.newS3Client(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.Cfg.EnvVars.S3Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s from S3: %v", key, err)
		}
	}

	return nil
}

// PresignPageURL issues a short-lived signed GET URL for a page object,
// used by the fallback extraction strategy.
func (s *Store) PresignPageURL(ctx context.Context, key string) (string, error) {
	client, err := s.newS3Client(ctx)
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(client)
	ttl := time.Duration(s.Cfg.EnvVars.SignedURLTTLMins) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Cfg.EnvVars.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign page URL: %v", err)
	}

	return req.URL, nil
}

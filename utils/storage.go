package utils

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// getR2Config returns AWS config for an S3-compatible store (Cloudflare R2).
func getR2Config() (aws.Config, error) {
	accountID := os.Getenv("R2_ACCOUNT_ID")
	accessKey := os.Getenv("R2_ACCESS_KEY_ID")
	secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")

	if accountID == "" || accessKey == "" || secretKey == "" {
		return aws.Config{}, fmt.Errorf("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID or R2_SECRET_ACCESS_KEY is not set")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"), // Required by SDK, R2 ignores this
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load R2 config: %w", err)
	}

	return cfg, nil
}

func getR2Client() (*s3.Client, error) {
	accountID := os.Getenv("R2_ACCOUNT_ID")
	if accountID == "" {
		return nil, fmt.Errorf("R2_ACCOUNT_ID is not set")
	}

	cfg, err := getR2Config()
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return client, nil
}

// UploadProfilePhoto stores a user's avatar under profiles/<userID>/ and
// returns the public URL (R2_PUBLIC_URL must point at the bucket).
func UploadProfilePhoto(ctx context.Context, userID uint, filename string, body io.Reader) (string, error) {
	client, err := getR2Client()
	if err != nil {
		return "", err
	}
	bucket := os.Getenv("R2_BUCKET")
	if bucket == "" {
		return "", fmt.Errorf("R2_BUCKET is not set")
	}

	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("profiles/%d/%d%s", userID, time.Now().UnixNano(), path.Ext(filename))

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	base := os.Getenv("R2_PUBLIC_URL")
	if base == "" {
		return key, nil
	}
	return fmt.Sprintf("%s/%s", base, key), nil
}

// DeleteObject removes an object by key. Best-effort on avatar replacement.
func DeleteObject(ctx context.Context, key string) error {
	client, err := getR2Client()
	if err != nil {
		return err
	}
	bucket := os.Getenv("R2_BUCKET")
	if bucket == "" {
		return fmt.Errorf("R2_BUCKET is not set")
	}
	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

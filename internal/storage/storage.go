// Package storage keeps uploaded media, either on local disk served under
// /uploads or in a DigitalOcean Spaces bucket behind its CDN.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PublicPrefix is the route local uploads are served from.
const PublicPrefix = "/uploads/"

type Storage interface {
	// SaveFile stores the upload under a generated unique name and returns
	// the URL players fetch it from.
	SaveFile(ctx context.Context, fileHeader *multipart.FileHeader, contentType string) (string, error)
	// DeleteFile removes a file previously returned by SaveFile. URLs the
	// backend does not own are ignored.
	DeleteFile(ctx context.Context, url string) error
	// Owns reports whether url points at a file this backend stored.
	Owns(url string) bool
}

type LocalStorage struct {
	uploadDir string
}

type SpacesStorage struct {
	client *s3.S3
	bucket string
	cdnURL string
}

func NewLocalStorage(uploadDir string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client: s3.New(sess),
		bucket: bucket,
		cdnURL: strings.TrimSuffix(cdnURL, "/"),
	}, nil
}

// uniqueFilename keeps only the original extension, as uploaded.
func uniqueFilename(original string) string {
	return uuid.NewString() + filepath.Ext(original)
}

func (ls *LocalStorage) SaveFile(_ context.Context, fileHeader *multipart.FileHeader, _ string) (string, error) {
	name := uniqueFilename(fileHeader.Filename)
	log.Debug().Str("original", fileHeader.Filename).Str("stored", name).Msg("[storage] saving upload")

	if err := os.MkdirAll(ls.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(ls.uploadDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return PublicPrefix + name, nil
}

func (ls *LocalStorage) Owns(url string) bool {
	name, ok := strings.CutPrefix(url, PublicPrefix)
	return ok && name != "" && !strings.ContainsAny(name, `/\`)
}

func (ls *LocalStorage) DeleteFile(_ context.Context, url string) error {
	if !ls.Owns(url) {
		return nil
	}
	path := filepath.Join(ls.uploadDir, strings.TrimPrefix(url, PublicPrefix))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func (ss *SpacesStorage) SaveFile(ctx context.Context, fileHeader *multipart.FileHeader, contentType string) (string, error) {
	name := uniqueFilename(fileHeader.Filename)
	log.Debug().Str("original", fileHeader.Filename).Str("stored", name).Msg("[storage] uploading to Spaces")

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := "uploads/" + name
	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("[storage] Spaces upload failed")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return ss.cdnURL + "/" + key, nil
}

func (ss *SpacesStorage) Owns(url string) bool {
	return strings.HasPrefix(url, ss.cdnURL+"/uploads/")
}

func (ss *SpacesStorage) DeleteFile(ctx context.Context, url string) error {
	if !ss.Owns(url) {
		return nil
	}
	key := strings.TrimPrefix(url, ss.cdnURL+"/")
	_, err := ss.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from Spaces: %w", key, err)
	}
	return nil
}

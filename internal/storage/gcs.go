package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type GCSStorageProvider struct {
	client     *storage.Client
	bucket     *storage.BucketHandle
	bucketName string
}

func NewGCSStorage(projectID, bucketName string) (*GCSStorageProvider, error) {
	ctx := context.Background()
	var client *storage.Client
	var err error

	if emulatorHost := os.Getenv("STORAGE_EMULATOR_HOST"); emulatorHost != "" {
		log.Debug().
			Str("emulator_host", emulatorHost).
			Msg("using GCS emulator")
		client, err = storage.NewClient(
			ctx,
			option.WithEndpoint(fmt.Sprintf("http://%s", emulatorHost)),
			option.WithoutAuthentication(),
		)
	} else if creds := os.Getenv("GOOGLE_CLOUD_CREDENTIALS"); creds != "" {
		decodedCreds, decodeErr := base64.StdEncoding.DecodeString(creds)
		if decodeErr != nil {
			return nil, fmt.Errorf("invalid base64 credentials: %w", decodeErr)
		}
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON(decodedCreds))
	} else {
		client, err = storage.NewClient(ctx)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	bucket := client.Bucket(bucketName)

	_, err = bucket.Attrs(ctx)
	if errors.Is(err, storage.ErrBucketNotExist) {
		log.Info().
			Str("bucket", bucketName).
			Msg("bucket does not exist, creating...")
		if err := bucket.Create(ctx, projectID, &storage.BucketAttrs{
			Location: "US-CENTRAL1",
		}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	return &GCSStorageProvider{
		client:     client,
		bucket:     bucket,
		bucketName: bucketName,
	}, nil
}

// OpenRange uses GCS range reads, so only the requested window crosses the
// wire. A negative length reads to the end of the object, matching the
// provider contract.
func (g *GCSStorageProvider) OpenRange(ctx context.Context, name string, offset, length int64) (io.ReadCloser, error) {
	obj := g.bucket.Object(name)
	reader, err := obj.NewRangeReader(ctx, offset, length)
	if err != nil {
		return nil, fmt.Errorf("failed to create range reader: %w", err)
	}
	return reader, nil
}

func (g *GCSStorageProvider) Exists(ctx context.Context, name string) (bool, error) {
	obj := g.bucket.Object(name)

	_, err := obj.Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("error checking object existence: %w", err)
}

func (g *GCSStorageProvider) Close() error {
	return g.client.Close()
}

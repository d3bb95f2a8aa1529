package attachment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const deleteTimeout = 30 * time.Second

// GCS stores attachments as objects in a Cloud Storage bucket. Keys may be
// bare object names or gs:// URIs into the same bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS opens a storage client. With no credentials file it falls back to
// Application Default Credentials.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Remove(ctx context.Context, key string) error {
	object, err := objectName(g.bucket, key)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	err = g.client.Bucket(g.bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s/%s: %w", g.bucket, object, err)
	}

	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func objectName(bucket, key string) (string, error) {
	if !strings.HasPrefix(key, "gs://") {
		return strings.TrimPrefix(key, "/"), nil
	}

	b, object, ok := strings.Cut(strings.TrimPrefix(key, "gs://"), "/")
	if !ok || object == "" {
		return "", fmt.Errorf("invalid GCS URI (no object path): %s", key)
	}

	if b != bucket {
		return "", fmt.Errorf("object %s is not in bucket %s", key, bucket)
	}

	return object, nil
}

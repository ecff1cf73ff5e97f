package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"path"
	"sort"
	"strings"

	"lumen/rgbimage"

	"cloud.google.com/go/storage"
	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/iterator"
)

const gcsKeyPrefix = "accumulations/"

// GCSStore keeps accumulations as objects in a GCS bucket.
type GCSStore struct {
	gcs    *storage.Client
	bucket string
}

func NewGCSStore(gcs *storage.Client, bucket string) *GCSStore {
	return &GCSStore{
		gcs:    gcs,
		bucket: bucket,
	}
}

func gcsObjectName(key string) string {
	return path.Join(gcsKeyPrefix, key)
}

func (s *GCSStore) Put(ctx context.Context, key string, acc *rgbimage.Accumulation) error {
	tracer := otel.Tracer("lumen/checkpoint")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GCSStore.Put")
	defer span.End()

	span.SetAttributes(
		attribute.String("key", key),
		attribute.Int("samples", acc.Samples),
	)

	if err := s.put(ctx, key, acc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *GCSStore) put(ctx context.Context, key string, acc *rgbimage.Accumulation) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	data, err := encode(acc)
	if err != nil {
		return err
	}

	obj := s.gcs.Bucket(s.bucket).Object(gcsObjectName(key))
	w := obj.NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("while writing accumulation to object writer: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("while closing object writer: %w", err)
	}

	glog.V(1).Infof("Wrote checkpoint %q (%d samples) to gs://%s/%s generation %d", key, acc.Samples, s.bucket, gcsObjectName(key), w.Attrs().Generation)
	return nil
}

func (s *GCSStore) Get(ctx context.Context, key string) (*rgbimage.Accumulation, error) {
	tracer := otel.Tracer("lumen/checkpoint")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GCSStore.Get")
	defer span.End()

	span.SetAttributes(attribute.String("key", key))

	acc, err := s.get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			span.SetStatus(codes.Ok, "")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return acc, nil
}

func (s *GCSStore) get(ctx context.Context, key string) (*rgbimage.Accumulation, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	obj := s.gcs.Bucket(s.bucket).Object(gcsObjectName(key))
	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("while opening gs://%s/%s: %w", s.bucket, gcsObjectName(key), ErrNotFound)
		}
		return nil, fmt.Errorf("while opening reader for object: %w", err)
	}
	defer r.Close()

	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("while reading from object: %w", err)
	}

	return decode(data)
}

func (s *GCSStore) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	it := s.gcs.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: gcsKeyPrefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while listing gs://%s/%s: %w", s.bucket, gcsKeyPrefix, err)
		}
		keys = append(keys, strings.TrimPrefix(attrs.Name, gcsKeyPrefix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *GCSStore) Close() error {
	if err := s.gcs.Close(); err != nil {
		return fmt.Errorf("while closing GCS client: %w", err)
	}
	return nil
}

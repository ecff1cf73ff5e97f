// Package checkpoint persists render accumulations so that a render can be
// extended later, or developed on another machine.
package checkpoint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"lumen/rgbimage"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrNotFound is returned by Get when no accumulation is stored under a key.
var ErrNotFound = errors.New("accumulation not found")

// Store is a keyed store of accumulations.
type Store interface {
	Put(ctx context.Context, key string, acc *rgbimage.Accumulation) error
	Get(ctx context.Context, key string) (*rgbimage.Accumulation, error)

	// Keys lists the stored keys in sorted order.
	Keys(ctx context.Context) ([]string, error)

	Close() error
}

var keyRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateKey rejects keys that would not map cleanly onto file names and
// object names.
func ValidateKey(key string) error {
	if !keyRegexp.MatchString(key) {
		return fmt.Errorf("bad checkpoint key %q: must match %s", key, keyRegexp)
	}
	return nil
}

func encode(acc *rgbimage.Accumulation) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := rgbimage.WriteAccumulation(acc, buf); err != nil {
		return nil, fmt.Errorf("while encoding accumulation: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*rgbimage.Accumulation, error) {
	acc, err := rgbimage.ReadAccumulation(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("while decoding accumulation: %w", err)
	}
	return acc, nil
}

// Open returns the store named by rawURL:
//
//	file:///some/dir      FileStore rooted at /some/dir
//	badger:///some/dir    BadgerStore in /some/dir
//	gs://bucket           GCSStore in the bucket
//
// A comma-separated list of URLs opens a MultiStore over all of them.
func Open(ctx context.Context, rawURL string, gcsOpts ...option.ClientOption) (Store, error) {
	urls := splitURLs(rawURL)
	if len(urls) == 0 {
		return nil, fmt.Errorf("empty checkpoint store URL")
	}

	if len(urls) > 1 {
		stores := []Store{}
		for _, u := range urls {
			s, err := openOne(ctx, u, gcsOpts...)
			if err != nil {
				for _, opened := range stores {
					opened.Close()
				}
				return nil, err
			}
			stores = append(stores, s)
		}
		return NewMultiStore(stores...), nil
	}

	return openOne(ctx, urls[0], gcsOpts...)
}

func splitURLs(rawURL string) []string {
	result := []string{}
	for _, u := range strings.Split(rawURL, ",") {
		if u = strings.TrimSpace(u); u != "" {
			result = append(result, u)
		}
	}
	return result
}

func openOne(ctx context.Context, rawURL string, gcsOpts ...option.ClientOption) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("while parsing checkpoint store URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return nil, fmt.Errorf("file store URL %q has no path", rawURL)
		}
		return NewFileStore(u.Path)
	case "badger":
		if u.Path == "" {
			return nil, fmt.Errorf("badger store URL %q has no path", rawURL)
		}
		return OpenBadgerStore(u.Path)
	case "gs":
		if u.Host == "" {
			return nil, fmt.Errorf("GCS store URL %q has no bucket", rawURL)
		}
		gcs, err := storage.NewClient(ctx, gcsOpts...)
		if err != nil {
			return nil, fmt.Errorf("while creating GCS client: %w", err)
		}
		return NewGCSStore(gcs, u.Host), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint store scheme %q in %q", u.Scheme, rawURL)
	}
}

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lumen/rgbimage"

	"github.com/golang/glog"
)

const fileSuffix = ".lacc"

// FileStore keeps each accumulation in its own file under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("while creating checkpoint dir %q: %w", dir, err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, key+fileSuffix)
}

// Put writes to a temporary file and renames it into place, so a crash never
// leaves a truncated checkpoint behind.
func (s *FileStore) Put(ctx context.Context, key string, acc *rgbimage.Accumulation) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	data, err := encode(acc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("while creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("while writing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("while closing temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("while renaming checkpoint into place: %w", err)
	}

	glog.V(1).Infof("Wrote checkpoint %q (%d samples, %d bytes) to %s", key, acc.Samples, len(data), s.path(key))
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (*rgbimage.Accumulation, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	acc, err := rgbimage.ReadAccumulationFromFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("while reading %s: %w", s.path(key), ErrNotFound)
		}
		return nil, fmt.Errorf("while reading %s: %w", s.path(key), err)
	}
	return acc, nil
}

func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	names, err := filepath.Glob(filepath.Join(s.Dir, "*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("while listing %s: %w", s.Dir, err)
	}

	keys := []string{}
	for _, name := range names {
		key := strings.TrimSuffix(filepath.Base(name), fileSuffix)
		if ValidateKey(key) == nil {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Close() error {
	return nil
}

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"lumen/rgbimage"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// maxParallelPuts bounds how many stores a MultiStore writes at once.
const maxParallelPuts = 4

// MultiStore mirrors writes to every member store.  Reads are served by the
// first member, in order, that has the key.
type MultiStore struct {
	stores []Store
	sem    *semaphore.Weighted
}

func NewMultiStore(stores ...Store) *MultiStore {
	return &MultiStore{
		stores: stores,
		sem:    semaphore.NewWeighted(maxParallelPuts),
	}
}

func (m *MultiStore) Put(ctx context.Context, key string, acc *rgbimage.Accumulation) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range m.stores {
		i, s := i, s
		if err := m.sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer m.sem.Release(1)
			if err := s.Put(gctx, key, acc); err != nil {
				return fmt.Errorf("while writing to store %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Acquire only fails once gctx is done; report why.
	return ctx.Err()
}

func (m *MultiStore) Get(ctx context.Context, key string) (*rgbimage.Accumulation, error) {
	for i, s := range m.stores {
		acc, err := s.Get(ctx, key)
		if err == nil {
			return acc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("while reading from store %d: %w", i, err)
		}
	}
	return nil, fmt.Errorf("no store has %q: %w", key, ErrNotFound)
}

// Keys is the union of the members' keys.
func (m *MultiStore) Keys(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	keys := []string{}
	for i, s := range m.stores {
		memberKeys, err := s.Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("while listing store %d: %w", i, err)
		}
		for _, k := range memberKeys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MultiStore) Close() error {
	var firstErr error
	for _, s := range m.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

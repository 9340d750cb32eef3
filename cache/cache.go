package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ZyrusAlvez/Schema-Generator/schema"
)

// GenerateFunc produces the schema for a fingerprint that is not stored yet.
type GenerateFunc func(ctx context.Context) (*schema.Fragment, error)

// Result is the outcome of GetOrGenerate.
type Result struct {
	Entry Entry
	// Hit is true when the returned entry was not generated by this caller.
	Hit bool
	// PersistErr wraps ErrPersistenceFailure when the generated entry could
	// not be saved. Entry is still valid for the current call.
	PersistErr error
}

// Cache is a lookup-or-generate front for a Store. For a given fingerprint
// the generator runs at most once per Cache: concurrent callers wait for the
// running generation and receive its entry.
type Cache struct {
	store Store
	group singleflight.Group

	mu   sync.RWMutex
	memo map[string]Entry
}

// New returns a Cache over store.
func New(store Store) *Cache {
	return &Cache{store: store, memo: make(map[string]Entry)}
}

// Store returns the underlying store.
func (c *Cache) Store() Store { return c.store }

// Lookup returns the entry for fp without generating. Corrupt entries are
// reported, never regenerated.
func (c *Cache) Lookup(ctx context.Context, fp string) (Entry, bool, error) {
	if e, ok := c.memoized(fp); ok {
		return e, true, nil
	}
	e, ok, err := c.store.Load(ctx, fp)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	c.remember(e)
	return e, true, nil
}

// GetOrGenerate returns the entry for fp, running gen only when neither the
// memo nor the store holds one. source is recorded on a generated entry.
//
// The shared generation does not observe the cancellation of whichever caller
// started it; each caller only stops waiting when its own ctx is done. When
// another writer commits fp first, its entry wins and is returned as a hit.
func (c *Cache) GetOrGenerate(ctx context.Context, fp, source string, gen GenerateFunc) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if e, ok := c.memoized(fp); ok {
		return Result{Entry: e, Hit: true}, nil
	}

	shared := context.WithoutCancel(ctx)
	var leader bool
	ch := c.group.DoChan(fp, func() (any, error) {
		leader = true
		e, ok, err := c.Lookup(shared, fp)
		if err != nil {
			return nil, err
		}
		if ok {
			return Result{Entry: e, Hit: true}, nil
		}
		frag, err := gen(shared)
		if err != nil {
			return nil, err
		}
		e = Entry{Fingerprint: fp, Schema: frag, Source: source}
		var persistErr error
		if err := c.store.Save(shared, e); errors.Is(err, ErrEntryExists) {
			stored, ok, lerr := c.store.Load(shared, fp)
			if lerr != nil {
				return nil, lerr
			}
			if ok {
				c.remember(stored)
				return Result{Entry: stored, Hit: true}, nil
			}
			persistErr = fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
		} else if err != nil {
			persistErr = fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
		}
		c.remember(e)
		return Result{Entry: e, PersistErr: persistErr}, nil
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		res := r.Val.(Result)
		if !leader {
			res.Hit = true
			res.PersistErr = nil
		}
		return res, nil
	}
}

func (c *Cache) memoized(fp string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.memo[fp]
	return e, ok
}

func (c *Cache) remember(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memo[e.Fingerprint] = e
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/tinylink-dev/tinylink/internal/app/model"
	"github.com/tinylink-dev/tinylink/internal/app/store"
	"github.com/tinylink-dev/tinylink/internal/shortcode"
	"go.uber.org/zap"
)

// Filter sizing: one million codes at 1% false positives.
const (
	codeFilterN  = 1_000_000
	codeFilterFP = 0.01
)

// Registry owns all link records. It is the only component that creates,
// mutates or deletes them.
type Registry struct {
	store  store.Store
	logger *zap.Logger

	// codes is a process-local negative filter guarding the lookup path
	// against random-code scans: a definite miss skips the store round
	// trip. Multi-writer deployments must run without it, since codes
	// inserted by another process would be reported absent.
	codes *bloom.BloomFilter
}

// RegistryOptions tunes optional registry behaviour.
type RegistryOptions struct {
	Logger *zap.Logger
	// DisableCodeFilter turns the bloom filter off.
	DisableCodeFilter bool
}

// NewRegistry builds a registry over the given store. When the code filter
// is enabled it is seeded from the store's current contents.
func NewRegistry(ctx context.Context, st store.Store, opts RegistryOptions) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{store: st, logger: logger}

	if !opts.DisableCodeFilter {
		r.codes = bloom.NewWithEstimates(codeFilterN, codeFilterFP)
		existing, err := st.Query(ctx, store.Filter{})
		if err != nil {
			return nil, fmt.Errorf("registry: seed code filter: %w", err)
		}
		for _, l := range existing {
			r.codes.AddString(l.Code)
		}
		logger.Info("code filter seeded", zap.Int("codes", len(existing)))
	}

	return r, nil
}

// Create validates the target and the optional requested code, rejects a
// target that is already shortened, and inserts the new link. The
// duplicate-target check is a soft pre-check; the store's unique constraint
// on code is the real safety net under concurrent creation.
func (r *Registry) Create(ctx context.Context, targetURL, requestedCode string) (*model.Link, error) {
	if !shortcode.IsValidURL(targetURL) {
		return nil, ErrInvalidTarget
	}

	code := strings.TrimSpace(requestedCode)
	if code != "" {
		if !shortcode.IsValidCode(code) {
			return nil, ErrInvalidCode
		}
	} else {
		code = shortcode.Generate(shortcode.DefaultLength)
	}

	existing, err := r.store.Query(ctx, store.Filter{TargetURL: &targetURL})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, &DuplicateTargetError{Code: existing[0].Code}
	}

	link := &model.Link{
		Code:      code,
		TargetURL: targetURL,
		CreatedAt: time.Now(),
	}
	if err := r.store.Insert(ctx, link); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}

	if r.codes != nil {
		r.codes.AddString(code)
	}
	return link, nil
}

// GetByCode returns the link for code, or ErrNotFound.
func (r *Registry) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	if r.codes != nil && !r.codes.TestString(code) {
		return nil, ErrNotFound
	}

	links, err := r.store.Query(ctx, store.Filter{Code: &code})
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNotFound
	}
	return &links[0], nil
}

// List returns every link, newest first.
func (r *Registry) List(ctx context.Context) ([]model.Link, error) {
	return r.store.Query(ctx, store.Filter{})
}

// Delete removes the link for code. Deleting an absent code succeeds; the
// bloom filter is left stale on purpose, a deleted code just falls through
// to the store and misses there.
func (r *Registry) Delete(ctx context.Context, code string) error {
	return r.store.Delete(ctx, code)
}

// RecordVisit bumps the click counter and last-clicked timestamp for code
// in one atomic store update.
func (r *Registry) RecordVisit(ctx context.Context, code string) error {
	err := r.store.RecordClick(ctx, code, time.Now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

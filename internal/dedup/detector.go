// Package dedup gates re-ingestion of unchanged content. The detector
// compares opaque content digests against the URL bookkeeping store; it
// never computes hashes itself.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// ChangeDetector answers "has the content behind this URL changed since
// we last processed it".
type ChangeDetector struct {
	repo   domain.URLInfoRepository
	logger *utils.Logger
}

// NewChangeDetector creates a ChangeDetector over the repository.
func NewChangeDetector(repo domain.URLInfoRepository, logger *utils.Logger) *ChangeDetector {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &ChangeDetector{
		repo:   repo,
		logger: logger.WithComponent("dedup"),
	}
}

// HasChanged reports whether currentHash differs from the recorded hash
// for the URL. A URL with no prior record is always changed.
func (d *ChangeDetector) HasChanged(ctx context.Context, url, currentHash string, meta map[string]string) (*domain.ChangeResult, error) {
	info, err := d.repo.GetByURL(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ChangeResult{
				HasChanged:  true,
				CurrentHash: currentHash,
				Metadata:    meta,
			}, nil
		}
		return nil, fmt.Errorf("lookup %s: %w", url, err)
	}

	changed := info.ContentHash != currentHash
	if !changed {
		d.logger.Debug().Str("url", url).Msg("Content unchanged")
	}

	return &domain.ChangeResult{
		HasChanged:   changed,
		PreviousHash: info.ContentHash,
		CurrentHash:  currentHash,
		LastChecked:  info.LastChecked,
		Metadata:     meta,
	}, nil
}

// RecordProcessed upserts the bookkeeping record after a successful
// ingestion.
func (d *ChangeDetector) RecordProcessed(ctx context.Context, url, hash string, meta map[string]string) error {
	_, err := d.repo.GetByURL(ctx, url)
	switch {
	case err == nil:
		return d.repo.UpdateHash(ctx, url, hash, meta)
	case errors.Is(err, domain.ErrNotFound):
		return d.repo.Register(ctx, &domain.URLInfo{
			URL:         url,
			ContentHash: hash,
			LastChecked: time.Now(),
			Metadata:    meta,
		})
	default:
		return fmt.Errorf("lookup %s: %w", url, err)
	}
}

// Forget drops the bookkeeping record so the next ingestion treats the
// URL as new.
func (d *ChangeDetector) Forget(ctx context.Context, url string) error {
	err := d.repo.Remove(ctx, url)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

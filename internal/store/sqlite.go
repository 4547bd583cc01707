package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// URLInfoRepo is the SQLite-backed URL bookkeeping repository.
type URLInfoRepo struct {
	db *sql.DB
}

// NewURLInfoRepo creates a URLInfoRepo over an open database.
func NewURLInfoRepo(db *sql.DB) *URLInfoRepo {
	return &URLInfoRepo{db: db}
}

func (r *URLInfoRepo) GetByURL(ctx context.Context, url string) (*domain.URLInfo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT url, content_hash, last_checked, metadata FROM url_info WHERE url = ?`, url)

	var info domain.URLInfo
	var metaJSON string
	if err := row.Scan(&info.URL, &info.ContentHash, &info.LastChecked, &metaJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("url_info get: %w", err)
	}

	if err := json.Unmarshal([]byte(metaJSON), &info.Metadata); err != nil {
		return nil, fmt.Errorf("url_info metadata: %w", err)
	}
	return &info, nil
}

func (r *URLInfoRepo) UpdateHash(ctx context.Context, url, hash string, metadata map[string]string) error {
	metaJSON, err := marshalMeta(metadata)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE url_info SET content_hash = ?, last_checked = ?, metadata = ? WHERE url = ?`,
		hash, time.Now().UTC(), metaJSON, url)
	if err != nil {
		return fmt.Errorf("url_info update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *URLInfoRepo) Register(ctx context.Context, info *domain.URLInfo) error {
	metaJSON, err := marshalMeta(info.Metadata)
	if err != nil {
		return err
	}

	lastChecked := info.LastChecked
	if lastChecked.IsZero() {
		lastChecked = time.Now()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO url_info (url, content_hash, last_checked, metadata) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET content_hash = excluded.content_hash,
		 last_checked = excluded.last_checked, metadata = excluded.metadata`,
		info.URL, info.ContentHash, lastChecked.UTC(), metaJSON)
	if err != nil {
		return fmt.Errorf("url_info register: %w", err)
	}
	return nil
}

func (r *URLInfoRepo) Remove(ctx context.Context, url string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM url_info WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("url_info remove: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// KnowledgeRepo is the SQLite-backed knowledge entry store.
type KnowledgeRepo struct {
	db *sql.DB
}

// NewKnowledgeRepo creates a KnowledgeRepo over an open database.
func NewKnowledgeRepo(db *sql.DB) *KnowledgeRepo {
	return &KnowledgeRepo{db: db}
}

func (r *KnowledgeRepo) Store(ctx context.Context, entry *domain.KnowledgeEntry) error {
	metaJSON, err := marshalMeta(entry.Metadata)
	if err != nil {
		return err
	}
	tagsJSON, err := json.Marshal(orEmpty(entry.Tags))
	if err != nil {
		return fmt.Errorf("entry tags: %w", err)
	}

	now := time.Now().UTC()
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO knowledge_entries
		 (id, url, title, content_kind, text, metadata, tags, checksum, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 url = excluded.url, title = excluded.title, content_kind = excluded.content_kind,
		 text = excluded.text, metadata = excluded.metadata, tags = excluded.tags,
		 checksum = excluded.checksum, updated_at = excluded.updated_at`,
		entry.ID, entry.URL, entry.Title, string(entry.ContentKind), entry.Text,
		metaJSON, string(tagsJSON), entry.Checksum, createdAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("entry store: %w", err)
	}
	return nil
}

func (r *KnowledgeRepo) Retrieve(ctx context.Context, id string) (*domain.KnowledgeEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, url, title, content_kind, text, metadata, tags, checksum, created_at, updated_at
		 FROM knowledge_entries WHERE id = ?`, id)

	var entry domain.KnowledgeEntry
	var kind, metaJSON, tagsJSON string
	err := row.Scan(&entry.ID, &entry.URL, &entry.Title, &kind, &entry.Text,
		&metaJSON, &tagsJSON, &entry.Checksum, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("entry retrieve: %w", err)
	}

	entry.ContentKind = domain.ContentKind(kind)
	if err := json.Unmarshal([]byte(metaJSON), &entry.Metadata); err != nil {
		return nil, fmt.Errorf("entry metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &entry.Tags); err != nil {
		return nil, fmt.Errorf("entry tags: %w", err)
	}
	return &entry, nil
}

// List returns all stored entries ordered by URL. An optional tag filter
// keeps only entries carrying that tag.
func (r *KnowledgeRepo) List(ctx context.Context, tag string) ([]*domain.KnowledgeEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, url, title, content_kind, text, metadata, tags, checksum, created_at, updated_at
		 FROM knowledge_entries ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("entry list: %w", err)
	}
	defer rows.Close()

	var entries []*domain.KnowledgeEntry
	for rows.Next() {
		var entry domain.KnowledgeEntry
		var kind, metaJSON, tagsJSON string
		if err := rows.Scan(&entry.ID, &entry.URL, &entry.Title, &kind, &entry.Text,
			&metaJSON, &tagsJSON, &entry.Checksum, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("entry list: %w", err)
		}
		entry.ContentKind = domain.ContentKind(kind)
		if err := json.Unmarshal([]byte(metaJSON), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("entry metadata: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &entry.Tags); err != nil {
			return nil, fmt.Errorf("entry tags: %w", err)
		}
		if tag != "" && !hasTag(entry.Tags, tag) {
			continue
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entry list: %w", err)
	}
	return entries, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func marshalMeta(meta map[string]string) (string, error) {
	if meta == nil {
		meta = map[string]string{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("metadata marshal: %w", err)
	}
	return string(data), nil
}

func orEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

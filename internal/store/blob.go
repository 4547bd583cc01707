package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// BlobStore writes raw fetched payloads to the filesystem, one file per
// blob plus a YAML metadata sidecar next to it.
type BlobStore struct {
	baseDir string
}

// blobSidecar is the YAML sidecar written next to each blob.
type blobSidecar struct {
	Name     string            `yaml:"name"`
	Size     int64             `yaml:"size"`
	StoredAt string            `yaml:"stored_at"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// NewBlobStore creates a BlobStore rooted at baseDir, creating it if
// needed.
func NewBlobStore(baseDir string) (*BlobStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("blob store: base directory required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("blob store: mkdir: %w", err)
	}
	return &BlobStore{baseDir: baseDir}, nil
}

// Store writes data under a sanitized version of name and returns the
// absolute blob path. An existing blob with the same name is replaced,
// sidecar included.
func (s *BlobStore) Store(ctx context.Context, data []byte, name string, metadata map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.baseDir, utils.SanitizeFilename(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob write: %w", err)
	}

	sidecar := blobSidecar{
		Name:     name,
		Size:     int64(len(data)),
		StoredAt: time.Now().UTC().Format(time.RFC3339),
		Metadata: metadata,
	}
	sidecarData, err := yaml.Marshal(&sidecar)
	if err != nil {
		return "", fmt.Errorf("blob sidecar: %w", err)
	}
	if err := os.WriteFile(path+".meta.yaml", sidecarData, 0o644); err != nil {
		return "", fmt.Errorf("blob sidecar write: %w", err)
	}

	return path, nil
}

// Load reads a blob back by the path Store returned.
func (s *BlobStore) Load(path string) ([]byte, error) {
	return os.ReadFile(path)
}

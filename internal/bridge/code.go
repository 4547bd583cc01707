package bridge

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// CodeOptions contains options for InvokeCode.
type CodeOptions struct {
	// Timeout bounds the invocation; zero uses DefaultTimeout.
	Timeout time.Duration
	// Suffix is the temp file extension; defaults to ".py".
	Suffix string
}

// InvokeCode writes code to a uniquely-named temp file and invokes the
// configured interpreter on it. The file name embeds timestamp plus
// random bits and is created with O_EXCL, so concurrent calls cannot
// collide. The file is removed on every exit path.
func (b *Bridge) InvokeCode(ctx context.Context, code string, args []any, opts CodeOptions) *domain.BridgeResult {
	suffix := opts.Suffix
	if suffix == "" {
		suffix = ".py"
	}

	path, err := b.writeTempScript(code, suffix)
	if err != nil {
		return &domain.BridgeResult{
			Success:  false,
			Error:    fmt.Sprintf("write temp script: %v", err),
			ExitCode: -1,
		}
	}
	defer os.Remove(path)

	return b.Invoke(ctx, b.interpreter, path, args, opts.Timeout)
}

// writeTempScript creates the script file, retrying on the unlikely
// name collision.
func (b *Bridge) writeTempScript(code, suffix string) (string, error) {
	dir := b.tempDir
	if dir == "" {
		dir = os.TempDir()
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		name := fmt.Sprintf("kbingest_bridge_%d_%04x%s", time.Now().UnixNano(), rand.Intn(0x10000), suffix)
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			lastErr = err
			continue
		}

		if _, err := f.WriteString(code); err != nil {
			f.Close()
			os.Remove(path)
			return "", err
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", err
		}
		return path, nil
	}

	return "", lastErr
}

package bridge

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	return New(Options{Interpreter: "python3", TempDir: t.TempDir()})
}

func TestInvokeCodeRoundTrip(t *testing.T) {
	requirePython(t)
	b := newTestBridge(t)

	res := b.InvokeCode(context.Background(), `import json; print(json.dumps({"a": 1}))`, nil, CodeOptions{})

	require.True(t, res.Success, "error: %s stderr: %s", res.Error, res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, float64(1), res.Data["a"])
	assert.False(t, res.TimedOut)
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestInvokeCodePassesArgsAsJSON(t *testing.T) {
	requirePython(t)
	b := newTestBridge(t)

	code := `import sys, json
cfg = json.loads(sys.argv[1])
extra = json.loads(sys.argv[2])
print(json.dumps({"url": cfg["url"], "n": extra}))
`
	res := b.InvokeCode(context.Background(), code, []any{map[string]string{"url": "https://example.com"}, 42}, CodeOptions{})

	require.True(t, res.Success, "error: %s stderr: %s", res.Error, res.Stderr)
	assert.Equal(t, "https://example.com", res.Data["url"])
	assert.Equal(t, float64(42), res.Data["n"])
}

func TestInvokeCodeTimeout(t *testing.T) {
	requirePython(t)
	tempDir := t.TempDir()
	b := New(Options{Interpreter: "python3", TempDir: tempDir})

	start := time.Now()
	res := b.InvokeCode(context.Background(), `import time
time.sleep(60)
`, nil, CodeOptions{Timeout: 500 * time.Millisecond})
	elapsed := time.Since(start)

	assert.False(t, res.Success)
	assert.True(t, res.TimedOut, "timeout must be distinguishable from other failures")
	assert.Less(t, elapsed, 10*time.Second, "must not wait for the sleeping child")

	// Temp script must be gone on every exit path.
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "kbingest_bridge_"), "leftover temp file: %s", e.Name())
	}
}

func TestInvokeCodeNonZeroExit(t *testing.T) {
	requirePython(t)
	b := newTestBridge(t)

	res := b.InvokeCode(context.Background(), `import sys
sys.stderr.write("boom\n")
sys.exit(3)
`, nil, CodeOptions{})

	assert.False(t, res.Success)
	assert.False(t, res.TimedOut, "non-zero exit is not a timeout")
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Stderr, "boom")
}

func TestInvokeCodeInvalidJSON(t *testing.T) {
	requirePython(t)
	b := newTestBridge(t)

	res := b.InvokeCode(context.Background(), `print("this is not json")`, nil, CodeOptions{})

	assert.False(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Error, "JSON")
}

func TestInvokeCodeInBandFailure(t *testing.T) {
	requirePython(t)
	b := newTestBridge(t)

	// Wrappers report failure in the document even when exiting 0.
	res := b.InvokeCode(context.Background(), `import json; print(json.dumps({"success": False, "error": "library not available"}))`, nil, CodeOptions{})

	assert.False(t, res.Success)
	assert.Equal(t, "library not available", res.Error)
}

func TestInvokeCodeIgnoresLeadingNoise(t *testing.T) {
	requirePython(t)
	b := newTestBridge(t)

	code := `import json
print("loading model...")
print(json.dumps({"success": True, "ok": True}))
`
	res := b.InvokeCode(context.Background(), code, nil, CodeOptions{})

	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, true, res.Data["ok"])
}

func TestInvokeSpawnFailure(t *testing.T) {
	b := newTestBridge(t)

	res := b.Invoke(context.Background(), "/nonexistent/interpreter", "script.py", nil, time.Second)

	assert.False(t, res.Success)
	assert.False(t, res.TimedOut)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.Error, "spawn failed")
}

func TestInvokeScriptFile(t *testing.T) {
	requirePython(t)
	b := newTestBridge(t)

	dir := t.TempDir()
	script := filepath.Join(dir, "wrapper.py")
	require.NoError(t, os.WriteFile(script, []byte(`import sys, json
cfg = json.loads(sys.argv[1])
print(json.dumps({"success": True, "echo": cfg}))
`), 0o600))

	res := b.Invoke(context.Background(), "python3", script, []any{map[string]any{"k": "v"}}, 10*time.Second)

	require.True(t, res.Success, "error: %s stderr: %s", res.Error, res.Stderr)
	echo, ok := res.Data["echo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v", echo["k"])
}

func TestProbeEnvironment(t *testing.T) {
	requirePython(t)
	b := newTestBridge(t)

	info, err := b.ProbeEnvironment(context.Background(), []string{"json", "definitely_not_a_real_module_xyz"})
	require.NoError(t, err)

	assert.True(t, info.Available)
	assert.NotEmpty(t, info.Version)
	assert.Equal(t, CapabilityPresent, info.Capabilities["json"])
	assert.Equal(t, CapabilityMissing, info.Capabilities["definitely_not_a_real_module_xyz"])
	assert.True(t, info.Capabilities["json"].IsPresent())
	assert.False(t, info.Capabilities["definitely_not_a_real_module_xyz"].IsPresent())
}

func TestProbeEnvironmentBrokenModule(t *testing.T) {
	requirePython(t)

	// The module is on sys.path (the probe script's directory) but
	// fails during its own import, like a native extension whose
	// shared library will not load. That is broken, not missing.
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(tempDir, "shattered_ext.py"),
		[]byte(`raise ImportError("shared library load failed")`+"\n"),
		0o600))
	b := New(Options{Interpreter: "python3", TempDir: tempDir})

	info, err := b.ProbeEnvironment(context.Background(), []string{"shattered_ext"})
	require.NoError(t, err)

	assert.Equal(t, CapabilityBroken, info.Capabilities["shattered_ext"])
	assert.True(t, info.Capabilities["shattered_ext"].IsPresent(),
		"installed-but-failing module must count as present")
}

func TestProbeEnvironmentBadInterpreter(t *testing.T) {
	b := New(Options{Interpreter: "/nonexistent/python"})

	info, err := b.ProbeEnvironment(context.Background(), nil)
	assert.Error(t, err)
	assert.False(t, info.Available)
}

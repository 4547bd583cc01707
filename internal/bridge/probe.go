package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CapabilityState classifies one probed capability.
type CapabilityState string

const (
	// CapabilityPresent means the module imported cleanly.
	CapabilityPresent CapabilityState = "present"
	// CapabilityBroken means the module is installed but errors on
	// import. For availability purposes it counts as present.
	CapabilityBroken CapabilityState = "broken"
	// CapabilityMissing means the module could not be found.
	CapabilityMissing CapabilityState = "missing"
)

// IsPresent reports whether the capability is installed, broken or not.
func (s CapabilityState) IsPresent() bool {
	return s == CapabilityPresent || s == CapabilityBroken
}

// EnvironmentInfo is the outcome of ProbeEnvironment.
type EnvironmentInfo struct {
	Available    bool                       `json:"available"`
	Version      string                     `json:"version,omitempty"`
	Capabilities map[string]CapabilityState `json:"capabilities,omitempty"`
}

const versionScript = `import sys, json
print(json.dumps({"success": True, "version": sys.version.split()[0]}))
`

// capabilityScript checks each module independently. Found-ness is
// decided by find_spec, not by the exception type: a module that is
// installed but raises on import (ImportError included, the broken
// native-extension case) is "broken", which still counts as present —
// only a module the finder cannot locate is "missing".
const capabilityScript = `import sys, json, importlib, importlib.util
caps = json.loads(sys.argv[1])
out = {}
for name in caps:
    try:
        importlib.import_module(name)
        out[name] = "present"
        continue
    except Exception:
        pass
    try:
        spec = importlib.util.find_spec(name)
    except Exception:
        spec = None
    out[name] = "broken" if spec is not None else "missing"
print(json.dumps({"success": True, "capabilities": out}))
`

// ProbeEnvironment confirms the interpreter is reachable, reports its
// version, and checks each named capability's importability. It returns
// an error only when the interpreter itself is unusable; per-capability
// outcomes are part of the result.
func (b *Bridge) ProbeEnvironment(ctx context.Context, capabilities []string) (*EnvironmentInfo, error) {
	info := &EnvironmentInfo{}

	res := b.InvokeCode(ctx, versionScript, nil, CodeOptions{Timeout: 15 * time.Second})
	if !res.Success {
		return info, fmt.Errorf("interpreter %s unavailable: %s", b.interpreter, res.Error)
	}
	info.Available = true
	if v, ok := res.Data["version"].(string); ok {
		info.Version = v
	}

	if len(capabilities) == 0 {
		return info, nil
	}

	res = b.InvokeCode(ctx, capabilityScript, []any{capabilities}, CodeOptions{Timeout: 60 * time.Second})
	if !res.Success {
		return info, fmt.Errorf("capability probe failed: %s", res.Error)
	}

	info.Capabilities = make(map[string]CapabilityState, len(capabilities))
	raw, _ := json.Marshal(res.Data["capabilities"])
	states := map[string]string{}
	if err := json.Unmarshal(raw, &states); err != nil {
		return info, fmt.Errorf("capability probe returned malformed data: %w", err)
	}
	for _, name := range capabilities {
		switch states[name] {
		case "present":
			info.Capabilities[name] = CapabilityPresent
		case "broken":
			info.Capabilities[name] = CapabilityBroken
		default:
			info.Capabilities[name] = CapabilityMissing
		}
	}

	return info, nil
}

package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// stageProgress maps each stage to its completion percentage.
var stageProgress = map[string]int{
	"detecting":  20,
	"fetching":   40,
	"processing": 60,
	"storing":    80,
	"indexing":   100,
}

// newOperationID builds an operation identifier from the start
// timestamp, a random component, and a short URL digest. The URL alone
// is never the identifier: the same URL can be in flight more than once.
func newOperationID(url string, now time.Time) string {
	digest := sha256.Sum256([]byte(url))
	return fmt.Sprintf("op_%d_%s_%s",
		now.UnixMilli(),
		uuid.NewString()[:8],
		hex.EncodeToString(digest[:4]))
}

// newEntryID builds a stable-format knowledge entry identifier.
func newEntryID() string {
	return "kb_" + uuid.NewString()
}

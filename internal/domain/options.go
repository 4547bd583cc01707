package domain

// ProcessOptions controls a single pipeline run.
type ProcessOptions struct {
	// Tags are attached to the stored knowledge entry.
	Tags []string
	// Force skips the change-detection gate and re-stores unchanged
	// content.
	Force bool
	// SkipBlob disables raw-byte archival in the blob store.
	SkipBlob bool
	// Concurrency is the batch window size for ProcessURLs; 0 uses the
	// orchestrator default.
	Concurrency int
}

package ports

// JobHandle is the external job runner's view into a running sync.
// UpdateProgress reports fractional completion; IsActive is the
// cooperative cancellation flag polled by strategies after each page.
type JobHandle interface {
	UpdateProgress(percent int)
	IsActive() bool
}

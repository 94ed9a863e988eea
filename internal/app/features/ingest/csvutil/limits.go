// internal/app/features/ingest/csvutil/limits.go
package csvutil

// Upload size and row limits for batch ingest.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 5000
)

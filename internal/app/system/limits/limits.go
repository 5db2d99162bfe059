// internal/app/system/limits/limits.go
package limits

// Request body size limits for form posts that carry free text.
const (
	// MaxWikiPageSize bounds a wiki page save, body included.
	MaxWikiPageSize = 1 << 20 // 1 MB

	// MaxTaskFormSize bounds a task create post.
	MaxTaskFormSize = 64 << 10 // 64 KB
)

// internal/app/features/workers/templates.go
package workers

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "workers",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}

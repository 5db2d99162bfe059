// internal/app/features/neighborhoods/templates.go
package neighborhoods

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "neighborhoods",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}

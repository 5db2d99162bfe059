// internal/app/features/orgselect/templates.go
package orgselect

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "orgselect",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}

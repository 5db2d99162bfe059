package orgselect

import "github.com/dalemusser/fieldops/internal/app/system/cascade"

// SelectOption is one <option>.
type SelectOption struct {
	ID       string
	Label    string
	Selected bool
}

// LevelField is one <select> of the cascade.
type LevelField struct {
	Key      string
	Label    string
	Options  []SelectOption
	Message  string // shown instead of options when the list is empty
	Error    string
	Disabled bool
}

// QuickCreate is the inline new-supervisor form.
type QuickCreate struct {
	Show         bool
	Input        cascade.QuickCreateInput
	Errors       map[string]string
	Error        string
	Created      string // name of the supervisor just created
	TempPassword string
}

// Fields is the view model of the "cascade_fields" template. Pages embed
// it in their form view models.
type Fields struct {
	Depth  int
	Mode   string
	State  string
	Levels []LevelField
	Error  string
	Quick  QuickCreate
}

// NewFields renders f.
func NewFields(f *cascade.Form) Fields {
	out := Fields{
		Depth: int(f.Depth),
		Mode:  string(f.Mode),
		State: string(f.State()),
	}
	for _, l := range cascade.Levels {
		if l > f.Depth {
			break
		}
		sel := f.Selected(l)
		opts := f.Options(l)
		lf := LevelField{
			Key:      l.Key(),
			Label:    l.Label(),
			Message:  f.OptionsMessage(l),
			Error:    f.Errors[l],
			Disabled: len(opts) == 0,
		}
		for _, o := range opts {
			lf.Options = append(lf.Options, SelectOption{ID: o.ID, Label: o.Label, Selected: o.ID == sel})
		}
		out.Levels = append(out.Levels, lf)
	}
	out.Quick.Show = f.NeedsQuickCreate()
	return out
}

// Package cascade is the state machine behind the dependent selects
// Area → City → Neighborhood → Supervisor used by the neighborhood and
// worker forms.
//
// A Form holds the selected id per level. Selecting a level clears every
// deeper level, and the options of the next level are always derived from
// the Dataset by parent id, so a descendant can never point outside the
// currently selected ancestor. Supervisors are the exception: they are
// fetched per neighborhood, and Select hands back a Ticket that the fetch
// result must present to ApplySupervisors. Results for an older ticket are
// dropped.
package cascade

import (
	"errors"
	"fmt"
)

// Level is a depth in the hierarchy, starting at 1.
type Level int

const (
	LevelArea Level = iota + 1
	LevelCity
	LevelNeighborhood
	LevelSupervisor
)

// Levels lists every level from the top.
var Levels = []Level{LevelArea, LevelCity, LevelNeighborhood, LevelSupervisor}

// Label is the Hebrew field label.
func (l Level) Label() string {
	switch l {
	case LevelArea:
		return "אזור"
	case LevelCity:
		return "עיר"
	case LevelNeighborhood:
		return "שכונה"
	case LevelSupervisor:
		return "רכז"
	}
	return ""
}

// Key is the form field name of the level.
func (l Level) Key() string {
	switch l {
	case LevelArea:
		return "area_id"
	case LevelCity:
		return "city_id"
	case LevelNeighborhood:
		return "neighborhood_id"
	case LevelSupervisor:
		return "supervisor_id"
	}
	return ""
}

// ParseLevel maps a form field name back to its Level.
func ParseLevel(key string) (Level, bool) {
	for _, l := range Levels {
		if l.Key() == key {
			return l, true
		}
	}
	return 0, false
}

// State is the deepest selected level, as a name.
type State string

const (
	StateEmpty                State = "Empty"
	StateAreaSelected         State = "AreaSelected"
	StateCitySelected         State = "CitySelected"
	StateNeighborhoodSelected State = "NeighborhoodSelected"
	StateSupervisorSelected   State = "SupervisorSelected"
)

// StateNeighborhoodsAvailable is the state in which the neighborhood list
// is populated and nothing below the city is chosen.
const StateNeighborhoodsAvailable = StateCitySelected

// Mode is create or edit.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

var (
	// ErrIncomplete is returned by Validate when a required level is empty.
	ErrIncomplete = errors.New("cascade: required selection missing")
	// ErrInvalidSelection is returned by Select for an id that is not an
	// option under the current ancestors.
	ErrInvalidSelection = errors.New("cascade: selection not under current parent")
	// ErrNotFound is returned by Prepopulate when the leaf or one of its
	// ancestors is missing from the dataset.
	ErrNotFound = errors.New("cascade: entity not in dataset")
)

// Option is one selectable entity. ParentID is the id one level up
// (areas have none; supervisors carry their city).
type Option struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	ParentID string `json:"parent_id,omitempty"`
}

// Dataset is everything the acting user may see.
type Dataset struct {
	Areas         []Option
	Cities        []Option // ParentID = area id
	Neighborhoods []Option // ParentID = city id
	Supervisors   []Option // ParentID = city id
}

func children(opts []Option, parentID string) []Option {
	if parentID == "" {
		return nil
	}
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		if o.ParentID == parentID {
			out = append(out, o)
		}
	}
	return out
}

func find(opts []Option, id string) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// CityOptions returns the cities under areaID.
func CityOptions(d Dataset, areaID string) []Option { return children(d.Cities, areaID) }

// NeighborhoodOptions returns the neighborhoods under cityID.
func NeighborhoodOptions(d Dataset, cityID string) []Option {
	return children(d.Neighborhoods, cityID)
}

// SupervisorOptions returns every supervisor of cityID, before narrowing
// to a neighborhood.
func SupervisorOptions(d Dataset, cityID string) []Option { return children(d.Supervisors, cityID) }

// Ticket identifies one supervisor fetch.
type Ticket struct {
	Seq            uint64
	NeighborhoodID string
}

// Form is the state of one open form.
type Form struct {
	Data  Dataset
	Mode  Mode
	Depth Level // deepest level the form requires

	AreaID         string
	CityID         string
	NeighborhoodID string
	SupervisorID   string

	// Field errors shown to the user, keyed by level.
	Errors map[Level]string

	seq          uint64
	loadedFor    string // neighborhood whose supervisors are in supervisors
	supervisors  []Option
	loadFailed   bool
	pendingFetch bool
}

// NewForm opens an empty form.
func NewForm(d Dataset, depth Level, mode Mode) *Form {
	if depth < LevelArea || depth > LevelSupervisor {
		depth = LevelSupervisor
	}
	if mode == "" {
		mode = ModeCreate
	}
	return &Form{Data: d, Mode: mode, Depth: depth, Errors: map[Level]string{}}
}

// Selected returns the id chosen at level, or "".
func (f *Form) Selected(l Level) string {
	switch l {
	case LevelArea:
		return f.AreaID
	case LevelCity:
		return f.CityID
	case LevelNeighborhood:
		return f.NeighborhoodID
	case LevelSupervisor:
		return f.SupervisorID
	}
	return ""
}

func (f *Form) set(l Level, id string) {
	switch l {
	case LevelArea:
		f.AreaID = id
	case LevelCity:
		f.CityID = id
	case LevelNeighborhood:
		f.NeighborhoodID = id
	case LevelSupervisor:
		f.SupervisorID = id
	}
}

// State returns the deepest contiguous selection.
func (f *Form) State() State {
	switch {
	case f.AreaID == "":
		return StateEmpty
	case f.CityID == "":
		return StateAreaSelected
	case f.NeighborhoodID == "":
		return StateCitySelected
	case f.SupervisorID == "":
		return StateNeighborhoodSelected
	default:
		return StateSupervisorSelected
	}
}

// Options returns the choices for level under the current ancestors.
func (f *Form) Options(l Level) []Option {
	switch l {
	case LevelArea:
		return f.Data.Areas
	case LevelCity:
		return CityOptions(f.Data, f.AreaID)
	case LevelNeighborhood:
		return NeighborhoodOptions(f.Data, f.CityID)
	case LevelSupervisor:
		if f.NeighborhoodID == "" || f.loadedFor != f.NeighborhoodID {
			return nil
		}
		return f.supervisors
	}
	return nil
}

// OptionsMessage explains an empty option list, or returns "".
func (f *Form) OptionsMessage(l Level) string {
	if len(f.Options(l)) > 0 {
		return ""
	}
	if l > LevelArea && f.Selected(l-1) == "" {
		return fmt.Sprintf("יש לבחור %s תחילה", (l - 1).Label())
	}
	if l == LevelSupervisor {
		switch {
		case f.pendingFetch:
			return "טוען רכזים..."
		case f.loadFailed:
			return "לא ניתן לטעון רכזים כרגע"
		}
		return "אין רכזים משויכים לשכונה זו"
	}
	return fmt.Sprintf("אין אפשרויות עבור %s", l.Label())
}

// Select sets level to id and clears every deeper level. An empty id just
// clears. When a neighborhood is chosen on a form that needs supervisors,
// the returned ticket must accompany the fetch result (fetch is true).
func (f *Form) Select(l Level, id string) (t Ticket, fetch bool, err error) {
	if l < LevelArea || l > f.Depth {
		return Ticket{}, false, fmt.Errorf("cascade: level %d outside form depth %d", l, f.Depth)
	}
	if id != "" {
		if _, ok := find(f.Options(l), id); !ok {
			return Ticket{}, false, ErrInvalidSelection
		}
	}

	f.set(l, id)
	for d := l + 1; d <= LevelSupervisor; d++ {
		f.set(d, "")
	}
	if l <= LevelNeighborhood {
		f.resetSupervisors()
	}
	if _, shown := f.Errors[l]; shown {
		f.ValidateField(l)
	}

	if l == LevelNeighborhood && id != "" && f.Depth >= LevelSupervisor {
		return f.issue(), true, nil
	}
	return Ticket{}, false, nil
}

func (f *Form) resetSupervisors() {
	f.seq++
	f.loadedFor = ""
	f.supervisors = nil
	f.loadFailed = false
	f.pendingFetch = false
}

func (f *Form) issue() Ticket {
	f.pendingFetch = true
	return Ticket{Seq: f.seq, NeighborhoodID: f.NeighborhoodID}
}

// PendingTicket returns the ticket for an outstanding supervisor fetch
// (after Prepopulate, for example).
func (f *Form) PendingTicket() (Ticket, bool) {
	if !f.pendingFetch {
		return Ticket{}, false
	}
	return Ticket{Seq: f.seq, NeighborhoodID: f.NeighborhoodID}, true
}

func (f *Form) current(t Ticket) bool {
	return f.pendingFetch && t.Seq == f.seq && t.NeighborhoodID == f.NeighborhoodID && f.NeighborhoodID != ""
}

// ApplySupervisors installs the supervisors fetched for t. It returns false,
// changing nothing, when t is stale. The current supervisor selection is
// cleared if it is not in list.
func (f *Form) ApplySupervisors(t Ticket, list []Option) bool {
	if !f.current(t) {
		return false
	}
	f.pendingFetch = false
	f.loadFailed = false
	f.loadedFor = t.NeighborhoodID
	f.supervisors = append([]Option(nil), list...)
	if f.SupervisorID != "" {
		if _, ok := find(f.supervisors, f.SupervisorID); !ok {
			f.SupervisorID = ""
		}
	}
	return true
}

// FailSupervisors records a failed fetch for t. The list degrades to empty
// and OptionsMessage explains it; no error reaches the form.
func (f *Form) FailSupervisors(t Ticket) bool {
	if !f.ApplySupervisors(t, nil) {
		return false
	}
	f.loadFailed = true
	return true
}

// Preselect chooses a supervisor ahead of the fetch, as edit mode does.
// ApplySupervisors keeps it only if it is in the fetched list.
func (f *Form) Preselect(supervisorID string) {
	if f.NeighborhoodID == "" || f.Depth < LevelSupervisor {
		return
	}
	f.SupervisorID = supervisorID
}

// NeedsQuickCreate reports whether the supervisor list for the selected
// neighborhood came back empty, so the inline create form should show.
func (f *Form) NeedsQuickCreate() bool {
	return f.Depth >= LevelSupervisor &&
		f.NeighborhoodID != "" &&
		f.loadedFor == f.NeighborhoodID &&
		!f.loadFailed &&
		len(f.supervisors) == 0
}

// AddSupervisor adds a newly created supervisor to the current
// neighborhood's list and selects it.
func (f *Form) AddSupervisor(o Option) error {
	if f.NeighborhoodID == "" || f.Depth < LevelSupervisor {
		return ErrIncomplete
	}
	if f.loadedFor != f.NeighborhoodID {
		f.resetSupervisors()
		f.loadedFor = f.NeighborhoodID
	}
	if _, ok := find(f.supervisors, o.ID); !ok {
		f.supervisors = append(f.supervisors, o)
	}
	if _, ok := find(f.Data.Supervisors, o.ID); !ok {
		f.Data.Supervisors = append(f.Data.Supervisors, o)
	}
	f.loadFailed = false
	f.pendingFetch = false
	f.SupervisorID = o.ID
	delete(f.Errors, LevelSupervisor)
	return nil
}

// AutoSelect fills in the obvious choices of an empty create form: the
// only visible area and, below it, the only city. The neighborhood is
// never chosen automatically.
func (f *Form) AutoSelect() State {
	if f.Mode != ModeCreate || f.AreaID != "" {
		return f.State()
	}
	if len(f.Data.Areas) != 1 {
		return f.State()
	}
	_, _, _ = f.Select(LevelArea, f.Data.Areas[0].ID)
	if f.Depth >= LevelCity {
		if cities := f.Options(LevelCity); len(cities) == 1 {
			_, _, _ = f.Select(LevelCity, cities[0].ID)
		}
	}
	return f.State()
}

// Prepopulate opens an edit form whose deepest known entity is leafID at
// leaf, walking parent links upward to select every ancestor. For a
// neighborhood leaf on a supervisor-depth form the supervisor fetch is
// left pending; see PendingTicket.
func Prepopulate(d Dataset, depth Level, leaf Level, leafID string) (*Form, error) {
	f := NewForm(d, depth, ModeEdit)
	if leaf > LevelNeighborhood || leaf > depth {
		return nil, fmt.Errorf("cascade: cannot prepopulate from level %d", leaf)
	}

	ids := map[Level]string{}
	id := leafID
	for l := leaf; l >= LevelArea; l-- {
		var src []Option
		switch l {
		case LevelArea:
			src = d.Areas
		case LevelCity:
			src = d.Cities
		case LevelNeighborhood:
			src = d.Neighborhoods
		}
		o, ok := find(src, id)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", ErrNotFound, l.Label(), id)
		}
		ids[l] = o.ID
		id = o.ParentID
	}

	f.AreaID = ids[LevelArea]
	f.CityID = ids[LevelCity]
	f.NeighborhoodID = ids[LevelNeighborhood]
	if f.NeighborhoodID != "" && depth >= LevelSupervisor {
		f.issue()
	}
	return f, nil
}

// Validate checks every level the form requires and records the messages
// in Errors.
func (f *Form) Validate() error {
	f.Errors = map[Level]string{}
	for l := LevelArea; l <= f.Depth; l++ {
		f.ValidateField(l)
	}
	if len(f.Errors) > 0 {
		return ErrIncomplete
	}
	return nil
}

// ValidateField re-checks one level only, updating Errors.
func (f *Form) ValidateField(l Level) string {
	if f.Errors == nil {
		f.Errors = map[Level]string{}
	}
	if l > f.Depth {
		delete(f.Errors, l)
		return ""
	}
	if f.Selected(l) == "" {
		msg := fmt.Sprintf("יש לבחור %s", l.Label())
		f.Errors[l] = msg
		return msg
	}
	delete(f.Errors, l)
	return ""
}

// internal/app/features/auditlog/types.go
package auditlog

import (
	"sort"

	"github.com/dalemusser/fieldops/internal/app/system/paging"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
)

// filterInput is the query string of the list page.
type filterInput struct {
	Entity string `form:"entity" validate:"omitempty,oneof=attendance area city neighborhood worker user task wiki_page session"`
	Action string `form:"action" validate:"omitempty,oneof=CREATE UPDATE DELETE LOGIN LOGIN_FAILED LOGOUT"`
	Email  string `form:"email" validate:"omitempty,max=200"`
	From   string `form:"from" validate:"omitempty,ymd" label:"מתאריך"`
	To     string `form:"to" validate:"omitempty,ymd" label:"עד תאריך"`
}

type option struct {
	Value string
	Label string
}

var entityOptions = []option{
	{models.EntityAttendance, "נוכחות"},
	{models.EntityArea, "אזור"},
	{models.EntityCity, "עיר"},
	{models.EntityNeighborhood, "שכונה"},
	{models.EntityWorker, "פעיל"},
	{models.EntityUser, "משתמש"},
	{models.EntityTask, "משימה"},
	{models.EntityWikiPage, "דף עזרה"},
	{models.EntitySession, "התחברות"},
}

var actionOptions = []option{
	{models.AuditCreate, "יצירה"},
	{models.AuditUpdate, "עדכון"},
	{models.AuditDelete, "מחיקה"},
	{models.AuditLogin, "כניסה"},
	{models.AuditLoginFailed, "כניסה שנכשלה"},
	{models.AuditLogout, "יציאה"},
}

func label(opts []option, v string) string {
	for _, o := range opts {
		if o.Value == v {
			return o.Label
		}
	}
	return v
}

// change is one field that differs between Before and After.
type change struct {
	Field  string
	Before string
	After  string
}

// diff lists the fields of before/after whose values differ, by name.
func diff(before, after map[string]string) []change {
	keys := map[string]bool{}
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}
	out := make([]change, 0, len(keys))
	for k := range keys {
		if before[k] != after[k] {
			out = append(out, change{Field: k, Before: before[k], After: after[k]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

type listItem struct {
	When      string
	Entity    string
	Action    string
	EntityID  string
	UserEmail string
	IP        string
	Changes   []change
	IsDelete  bool
}

type listData struct {
	viewdata.BaseVM
	Filter   filterInput
	Entities []option
	Actions  []option
	Items    []listItem
	Pager    paging.Pager
	Error    string
	Fields   map[string]string
}

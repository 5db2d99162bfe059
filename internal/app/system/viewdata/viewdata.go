// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"context"
	"net/http"

	notificationstore "github.com/dalemusser/fieldops/internal/app/store/notifications"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/navigation"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
)

// SiteName is shown in the header and page titles.
const SiteName = "מערכת נוכחות שטח"

// NavItem is one entry of the side menu.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, db, "כותרת", "/default-back"),
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string
	Nav         []NavItem

	// CSRF protection
	CSRFToken string

	UnreadNotifications int64
}

// NewBaseVM creates a fully populated BaseVM for a page. db may be nil, in
// which case the unread badge stays at zero.
func NewBaseVM(r *http.Request, db *mongo.Database, title, backDefault string) BaseVM {
	role, name, userID, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:    SiteName,
		IsLoggedIn:  signedIn,
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
	if signedIn {
		vm.Nav = Menu(role, vm.CurrentPath)
	}

	if db != nil && signedIn {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		if n, err := notificationstore.New(db).UnreadCount(ctx, userID); err == nil {
			vm.UnreadNotifications = n
		}
	}
	return vm
}

// Menu returns the side menu for role, marking the entry that owns
// currentPath.
func Menu(role, currentPath string) []NavItem {
	items := []NavItem{
		{Label: "לוח בקרה", Href: "/dashboard"},
		{Label: "נוכחות היום", Href: "/attendance"},
		{Label: "היסטוריית נוכחות", Href: "/attendance/history"},
		{Label: "משימות", Href: "/tasks"},
	}
	switch role {
	case "superadmin", "area_manager", "city_coordinator":
		items = append(items,
			NavItem{Label: "עובדים", Href: "/workers"},
			NavItem{Label: "מבנה ארגוני", Href: "/org"},
			NavItem{Label: "משתמשים", Href: "/users"},
		)
	}
	switch role {
	case "superadmin", "area_manager":
		items = append(items,
			NavItem{Label: "אזורים", Href: "/areas"},
			NavItem{Label: "ערים", Href: "/cities"},
			NavItem{Label: "שכונות", Href: "/neighborhoods"},
			NavItem{Label: "יומן ביקורת", Href: "/audit"},
		)
	}
	if role == "superadmin" {
		items = append(items, NavItem{Label: "יומן שגיאות", Href: "/errors"})
	}
	items = append(items,
		NavItem{Label: "התראות", Href: "/notifications"},
		NavItem{Label: "מדריך", Href: "/wiki"},
		NavItem{Label: "הפרופיל שלי", Href: "/profile"},
	)
	for i := range items {
		items[i].Active = navigation.IsActive(currentPath, items[i].Href)
	}
	return items
}

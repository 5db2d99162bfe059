// internal/app/features/areas/types.go
package areas

import (
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
)

type listItem struct {
	ID          string
	Name        string
	ManagerName string
	Cities      int64
}

type listData struct {
	viewdata.BaseVM
	Items     []listItem
	CanManage bool
	Error     string
}

type managerOption struct {
	ID       string
	Name     string
	Selected bool
}

// formData backs both the new and the edit page; ID is empty on new.
type formData struct {
	formutil.Base
	ID        string
	Name      string
	ManagerID string
	Managers  []managerOption
}

// areaInput is the posted area form.
type areaInput struct {
	Name      string `form:"name" validate:"required,max=100" label:"שם האזור"`
	ManagerID string `form:"manager_id" validate:"omitempty,objectid" label:"מנהל אזור"`
}

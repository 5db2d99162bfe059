package cascade

import (
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
)

// QuickCreateInput is the inline "new supervisor" form shown when a
// neighborhood has no supervisors.
type QuickCreateInput struct {
	FullName string `json:"full_name" form:"full_name" validate:"required,max=200" label:"שם מלא"`
	Email    string `json:"email" form:"email" validate:"required,emailaddr,max=254" label:"דוא\"ל"`
	Phone    string `json:"phone" form:"phone" validate:"omitempty,phone" label:"טלפון"`
	Title    string `json:"title" form:"title" validate:"omitempty,max=100" label:"תפקיד"`
}

// Normalize trims and canonicalizes the fields.
func (in QuickCreateInput) Normalize() QuickCreateInput {
	return QuickCreateInput{
		FullName: normalize.Name(in.FullName),
		Email:    normalize.Email(in.Email),
		Phone:    normalize.QueryParam(in.Phone),
		Title:    normalize.Name(in.Title),
	}
}

// Validate checks the (normalized) input.
func (in QuickCreateInput) Validate() inputval.Result {
	return inputval.Validate(in)
}

// QuickCreateResult is what the server returns for a created supervisor.
// TempPassword is shown once and never stored in clear.
type QuickCreateResult struct {
	Supervisor   Option `json:"supervisor"`
	TempPassword string `json:"temp_password"`
}

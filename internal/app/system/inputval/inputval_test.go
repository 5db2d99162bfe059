package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"dana@fieldops.org.il",
		"coord.north+haifa@example.com",
		"x@y.io",
		"ops@localhost",
		"o'brien@example.com",
	}
	invalid := []string{
		"",
		"  ",
		"dana",
		"dana@",
		"@fieldops.org",
		"dana@@fieldops.org",
		".dana@fieldops.org",
		"dana.@fieldops.org",
		"da..na@fieldops.org",
		"dana@.fieldops.org",
		"dana@fieldops..org",
		"dana@fieldops.org.",
		"דנה <dana@fieldops.org>",
		"da na@fieldops.org",
		"dana@field ops.org",
		"dana@field_ops.org",
	}
	for _, s := range valid {
		if !IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = true, want false", s)
		}
	}
}

package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct{ in, want string }{
		{"user@example.com", "user@example.com"},
		{"  Dana@Example.CO.IL  ", "dana@example.co.il"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Email(tt.in); got != tt.want {
			t.Errorf("Email(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"דנה כהן", "דנה כהן"},
		{"  דנה   כהן  ", "דנה כהן"},
		{"UPPER Case", "UPPER Case"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Name(tt.in); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusAndRole(t *testing.T) {
	if got := Status("  Active "); got != "active" {
		t.Errorf("Status = %q", got)
	}
	if got := Role("Area_Manager"); got != "area_manager" {
		t.Errorf("Role = %q", got)
	}
	if got := QueryParam("  Keep Case "); got != "Keep Case" {
		t.Errorf("QueryParam = %q", got)
	}
}

func TestPhone(t *testing.T) {
	tests := []struct{ in, want string }{
		{"050-123 4567", "0501234567"},
		{"+972 (50) 1234567", "+972501234567"},
		{"972+50", "97250"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Phone(tt.in); got != tt.want {
			t.Errorf("Phone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"507f1f77bcf86cd799439011", "507f1f77bcf86cd799439011"},
		{"  507f1f77bcf86cd799439011 ", "507f1f77bcf86cd799439011"},
		{"all", ""},
		{" ALL ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FilterID(tt.in); got != tt.want {
			t.Errorf("FilterID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestObjectID(t *testing.T) {
	if _, ok := ObjectID("all"); ok {
		t.Error("all should not parse")
	}
	if _, ok := ObjectID("zzz"); ok {
		t.Error("garbage should not parse")
	}
	id, ok := ObjectID(" 507f1f77bcf86cd799439011 ")
	if !ok || id.Hex() != "507f1f77bcf86cd799439011" {
		t.Errorf("ObjectID = %v %v", id, ok)
	}
}

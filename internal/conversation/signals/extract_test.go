package signals

import "testing"

func TestExtract_Name(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Hi, I'm Dana", "Dana"},
		{"hello, my name is Alex Rivera", "Alex Rivera"},
		{"This is Jordan from accounting", "Jordan"},
		{"I'm looking for pricing info", ""},
		{"we need automation help", ""},
	}

	for _, tt := range tests {
		got := Extract(tt.content).Name
		if got != tt.want {
			t.Errorf("Extract(%q).Name = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestExtract_Email(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"reach me at dana@acme.com, thanks", "dana@acme.com"},
		{"Dana.Smith+leads@Sub.Acme.COM", "dana.smith+leads@sub.acme.com"},
		{"no email here", ""},
	}

	for _, tt := range tests {
		got := Extract(tt.content).Email
		if got != tt.want {
			t.Errorf("Extract(%q).Email = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestEmailDomain(t *testing.T) {
	if got := EmailDomain("dana@acme.com"); got != "acme.com" {
		t.Fatalf("expected acme.com, got %q", got)
	}
	if got := EmailDomain("not-an-email"); got != "" {
		t.Fatalf("expected empty domain, got %q", got)
	}
}

func TestExtract_Phone(t *testing.T) {
	got := Extract("call me on +31 6 12345678").Phone
	if got != "+31612345678" {
		t.Errorf("expected +31612345678, got %q", got)
	}

	got = Extract("my number is (415) 555-2671").Phone
	if got != "+14155552671" {
		t.Errorf("expected +14155552671, got %q", got)
	}

	if got := Extract("we have 3 offices and 12 teams").Phone; got != "" {
		t.Errorf("expected no phone from plain numbers, got %q", got)
	}
}

func TestIsProblemStatement(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"we need automation help", true},
		{"our onboarding is slow and manual", true},
		{"ok", false},
		{"sounds good thanks", false},
		{"we are trying to reduce support costs", true},
	}

	for _, tt := range tests {
		if got := IsProblemStatement(tt.content); got != tt.want {
			t.Errorf("IsProblemStatement(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

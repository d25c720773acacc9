package intel

import "testing"

func TestResolve_FreeMailDomain(t *testing.T) {
	result := Resolve("gmail.com")

	if !result.FreeMail {
		t.Fatalf("expected gmail.com to be flagged free mail")
	}
	if result.Confidence != ConfidenceLow {
		t.Fatalf("expected low confidence, got %s", result.Confidence)
	}
	if result.IndustryGuess != "unknown" {
		t.Fatalf("expected unknown industry, got %s", result.IndustryGuess)
	}
}

func TestResolve_KeywordMatch(t *testing.T) {
	tests := []struct {
		domain   string
		industry string
	}{
		{"acmesoftware.com", "technology"},
		{"brightconsulting.nl", "consulting"},
		{"cityclinic.com", "healthcare"},
		{"sunsolar.com", "energy"},
		{"lakesideretail.com", "retail"},
	}

	for _, tt := range tests {
		result := Resolve(tt.domain)
		if result.IndustryGuess != tt.industry {
			t.Errorf("Resolve(%s): expected industry %s, got %s", tt.domain, tt.industry, result.IndustryGuess)
		}
		if result.Confidence != ConfidenceHigh {
			t.Errorf("Resolve(%s): expected high confidence, got %s", tt.domain, result.Confidence)
		}
	}
}

func TestResolve_TLDHint(t *testing.T) {
	result := Resolve("widgets.io")

	if result.IndustryGuess != "technology" {
		t.Fatalf("expected technology from .io TLD, got %s", result.IndustryGuess)
	}
	if result.CompanySizeEstimate != "11-50" {
		t.Fatalf("expected 11-50 size estimate, got %s", result.CompanySizeEstimate)
	}
}

func TestResolve_UnknownDomainNeverFails(t *testing.T) {
	for _, domain := range []string{"", "x", "qqqqzzzz.xyz", "weird..domain", "UPPER.COM"} {
		result := Resolve(domain)
		if result.CompanySizeEstimate == "" || result.IndustryGuess == "" || result.Confidence == "" {
			t.Fatalf("Resolve(%q) returned empty fields: %+v", domain, result)
		}
	}
}

func TestResolve_Deterministic(t *testing.T) {
	a := Resolve("acme.com")
	b := Resolve("acme.com")
	if a != b {
		t.Fatalf("expected deterministic results, got %+v vs %+v", a, b)
	}
}

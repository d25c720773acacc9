// Package intel provides the company intelligence resolver: a pure heuristic
// lookup that derives a size estimate and industry guess from an email domain.
// It never fails; unrecognized domains produce a low-confidence default.
package intel

import "strings"

// Confidence buckets for a resolution.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Result is the outcome of resolving an email domain.
type Result struct {
	CompanySizeEstimate string `json:"companySizeEstimate"`
	IndustryGuess       string `json:"industryGuess"`
	Confidence          string `json:"confidence"`
	FreeMail            bool   `json:"freeMail"`
}

// freeMailDomains are consumer mail providers that carry no company signal.
var freeMailDomains = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"yahoo.co.uk":    {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"live.com":       {},
	"msn.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"aol.com":        {},
	"proton.me":      {},
	"protonmail.com": {},
	"gmx.com":        {},
	"gmx.de":         {},
	"mail.com":       {},
	"zoho.com":       {},
	"yandex.com":     {},
}

// industryKeywords maps domain-name fragments to an industry guess.
// Order matters: more specific fragments are listed first.
var industryKeywords = []struct {
	fragment string
	industry string
}{
	{"fintech", "financial services"},
	{"bank", "financial services"},
	{"capital", "financial services"},
	{"invest", "financial services"},
	{"insur", "insurance"},
	{"health", "healthcare"},
	{"clinic", "healthcare"},
	{"pharma", "healthcare"},
	{"medic", "healthcare"},
	{"dental", "healthcare"},
	{"law", "legal services"},
	{"legal", "legal services"},
	{"logistics", "logistics"},
	{"shipping", "logistics"},
	{"freight", "logistics"},
	{"retail", "retail"},
	{"shop", "retail"},
	{"store", "retail"},
	{"studio", "creative services"},
	{"design", "creative services"},
	{"media", "media"},
	{"agency", "marketing"},
	{"marketing", "marketing"},
	{"consult", "consulting"},
	{"advisory", "consulting"},
	{"realty", "real estate"},
	{"estate", "real estate"},
	{"property", "real estate"},
	{"build", "construction"},
	{"construct", "construction"},
	{"energy", "energy"},
	{"solar", "energy"},
	{"labs", "technology"},
	{"software", "technology"},
	{"tech", "technology"},
	{"cloud", "technology"},
	{"data", "technology"},
	{"ai", "technology"},
	{"hotel", "hospitality"},
	{"travel", "hospitality"},
	{"food", "food & beverage"},
	{"cafe", "food & beverage"},
	{"edu", "education"},
	{"school", "education"},
	{"academy", "education"},
}

// tldHints maps TLDs to a default industry/size signal.
var tldHints = map[string]struct {
	industry string
	size     string
}{
	"io":    {"technology", "11-50"},
	"ai":    {"technology", "11-50"},
	"dev":   {"technology", "2-10"},
	"app":   {"technology", "2-10"},
	"tech":  {"technology", "11-50"},
	"org":   {"non-profit", "11-50"},
	"edu":   {"education", "201-1000"},
	"gov":   {"government", "1000+"},
	"co":    {"", "2-10"},
	"shop":  {"retail", "2-10"},
	"store": {"retail", "2-10"},
}

// Resolve derives a best-effort company profile from an email domain.
// Pure and deterministic; safe to call from any goroutine.
func Resolve(emailDomain string) Result {
	domain := strings.ToLower(strings.TrimSpace(emailDomain))
	domain = strings.TrimPrefix(domain, "www.")
	if domain == "" {
		return Result{
			CompanySizeEstimate: "unknown",
			IndustryGuess:       "unknown",
			Confidence:          ConfidenceLow,
		}
	}

	if _, ok := freeMailDomains[domain]; ok {
		return Result{
			CompanySizeEstimate: "unknown",
			IndustryGuess:       "unknown",
			Confidence:          ConfidenceLow,
			FreeMail:            true,
		}
	}

	name, tld := splitDomain(domain)

	result := Result{
		CompanySizeEstimate: "11-50",
		IndustryGuess:       "unknown",
		Confidence:          ConfidenceLow,
	}

	if hint, ok := tldHints[tld]; ok {
		if hint.industry != "" {
			result.IndustryGuess = hint.industry
			result.Confidence = ConfidenceMedium
		}
		if hint.size != "" {
			result.CompanySizeEstimate = hint.size
		}
	}

	for _, kw := range industryKeywords {
		if strings.Contains(name, kw.fragment) {
			result.IndustryGuess = kw.industry
			result.Confidence = ConfidenceHigh
			break
		}
	}

	// Short, compound-free names tend to be established brands.
	if result.Confidence == ConfidenceLow && len(name) <= 6 && !strings.Contains(name, "-") {
		result.CompanySizeEstimate = "51-200"
		result.Confidence = ConfidenceMedium
	}

	return result
}

// splitDomain returns the registrable name and the TLD of a domain.
// "acme.co.uk" yields ("acme", "uk"); heuristic only, no PSL lookup.
func splitDomain(domain string) (name, tld string) {
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return domain, ""
	}
	return parts[0], parts[len(parts)-1]
}

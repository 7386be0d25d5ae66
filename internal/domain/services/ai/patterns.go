package ai

import (
	"fmt"
	"regexp"
	"strings"
)

// Account number length bounds. The year filter in the extractor only
// triggers if MinAccountDigits is ever lowered to 4 or below.
const (
	MinAccountDigits = 9
	MaxAccountDigits = 18
)

var (
	accountPattern = regexp.MustCompile(fmt.Sprintf(`\b\d{%d,%d}\b`, MinAccountDigits, MaxAccountDigits))
	ifscPattern    = regexp.MustCompile(`(?i)\b[A-Z]{4}0[A-Z0-9]{6}\b`)
	handlePattern  = regexp.MustCompile(`[\w.-]+@[A-Za-z]+\b`)
	urlPattern     = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+")
	phonePattern   = regexp.MustCompile(`\b(?:\+91|91|0)?[6-9]\d{9}\b`)
	amountPattern  = regexp.MustCompile(`(?i)(?:\bRs\.?|₹|\bINR)\s*\d[\d,.]*`)
)

const urlTrailingPunct = ".,;:!?"

// PatternLibrary holds the compiled recognizers for every indicator type.
// All methods are pure and safe for concurrent use.
type PatternLibrary struct{}

// NewPatternLibrary returns the shared pattern library
func NewPatternLibrary() *PatternLibrary {
	return &PatternLibrary{}
}

// MatchURLs returns every http(s) URL with trailing punctuation removed
func (p *PatternLibrary) MatchURLs(text string) []string {
	raw := urlPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimRight(u, urlTrailingPunct)
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// RemoveURLs blanks out URL substrings so later patterns cannot match inside them
func (p *PatternLibrary) RemoveURLs(text string) string {
	return urlPattern.ReplaceAllString(text, " ")
}

// MatchIFSC returns bank-routing codes, uppercased
func (p *PatternLibrary) MatchIFSC(text string) []string {
	raw := ifscPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, code := range raw {
		out = append(out, strings.ToUpper(code))
	}
	return out
}

// MatchPhones returns 10-digit mobile numbers with any +91, 91 or 0 prefix removed
func (p *PatternLibrary) MatchPhones(text string) []string {
	raw := phonePattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		if n := normalizePhone(m); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// MatchPaymentHandles returns raw local@provider candidates
func (p *PatternLibrary) MatchPaymentHandles(text string) []string {
	return handlePattern.FindAllString(text, -1)
}

// MatchAccountCandidates returns digit runs within the account length bounds
func (p *PatternLibrary) MatchAccountCandidates(text string) []string {
	return accountPattern.FindAllString(text, -1)
}

// MatchAmounts returns currency amounts such as "Rs 50,000" or "₹500"
func (p *PatternLibrary) MatchAmounts(text string) []string {
	raw := amountPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		out = append(out, strings.TrimRight(m, ",."))
	}
	return out
}

// HasAmount reports whether text holds a currency code or symbol followed by digits
func (p *PatternLibrary) HasAmount(text string) bool {
	return amountPattern.MatchString(text)
}

func normalizePhone(m string) string {
	switch {
	case len(m) == 13 && strings.HasPrefix(m, "+91"):
		m = m[3:]
	case len(m) == 12 && strings.HasPrefix(m, "91"):
		m = m[2:]
	case len(m) == 11 && strings.HasPrefix(m, "0"):
		m = m[1:]
	}
	if len(m) != 10 || m[0] < '6' || m[0] > '9' {
		return ""
	}
	return m
}

// looksLikePhone reports whether a digit string is shaped like a mobile number
func looksLikePhone(digits string) bool {
	return len(digits) == 10 && digits[0] >= '6' && digits[0] <= '9'
}

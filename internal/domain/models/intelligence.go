package models

import (
	"sort"
)

// Intelligence categories, also used as event subject tokens
const (
	CategoryBankAccount = "bank_account"
	CategoryIFSC        = "ifsc_code"
	CategoryUPI         = "upi_id"
	CategoryURL         = "phishing_url"
	CategoryPhone       = "phone_number"
)

// ExtractedIntelligence holds the fraud indicators mined from text.
// Every category has set semantics; slices are kept sorted and unique so two
// equal sets always serialize identically.
type ExtractedIntelligence struct {
	BankAccounts []string            `json:"bank_accounts"`
	IFSCCodes    []string            `json:"ifsc_codes"`
	UPIIDs       []string            `json:"upi_ids"`
	PhishingURLs []string            `json:"phishing_urls"`
	PhoneNumbers []string            `json:"phone_numbers"`
	OtherData    map[string][]string `json:"other_data"`
}

// NewExtractedIntelligence returns an empty result with non-nil sets
func NewExtractedIntelligence() *ExtractedIntelligence {
	return &ExtractedIntelligence{
		BankAccounts: []string{},
		IFSCCodes:    []string{},
		UPIIDs:       []string{},
		PhishingURLs: []string{},
		PhoneNumbers: []string{},
		OtherData:    map[string][]string{},
	}
}

// Normalize dedupes and sorts every category in place and returns the receiver
func (e *ExtractedIntelligence) Normalize() *ExtractedIntelligence {
	e.BankAccounts = UniqueSorted(e.BankAccounts)
	e.IFSCCodes = UniqueSorted(e.IFSCCodes)
	e.UPIIDs = UniqueSorted(e.UPIIDs)
	e.PhishingURLs = UniqueSorted(e.PhishingURLs)
	e.PhoneNumbers = UniqueSorted(e.PhoneNumbers)
	if e.OtherData == nil {
		e.OtherData = map[string][]string{}
	}
	for k, v := range e.OtherData {
		e.OtherData[k] = UniqueSorted(v)
	}
	return e
}

// Merge returns a fresh union of e and other; neither input is modified
func (e *ExtractedIntelligence) Merge(other *ExtractedIntelligence) *ExtractedIntelligence {
	out := NewExtractedIntelligence()
	for _, src := range []*ExtractedIntelligence{e, other} {
		if src == nil {
			continue
		}
		out.BankAccounts = append(out.BankAccounts, src.BankAccounts...)
		out.IFSCCodes = append(out.IFSCCodes, src.IFSCCodes...)
		out.UPIIDs = append(out.UPIIDs, src.UPIIDs...)
		out.PhishingURLs = append(out.PhishingURLs, src.PhishingURLs...)
		out.PhoneNumbers = append(out.PhoneNumbers, src.PhoneNumbers...)
		for k, v := range src.OtherData {
			out.OtherData[k] = append(out.OtherData[k], v...)
		}
	}
	return out.Normalize()
}

// Difference returns the values in e that are absent from other
func (e *ExtractedIntelligence) Difference(other *ExtractedIntelligence) *ExtractedIntelligence {
	if other == nil {
		other = NewExtractedIntelligence()
	}
	out := NewExtractedIntelligence()
	out.BankAccounts = subtract(e.BankAccounts, other.BankAccounts)
	out.IFSCCodes = subtract(e.IFSCCodes, other.IFSCCodes)
	out.UPIIDs = subtract(e.UPIIDs, other.UPIIDs)
	out.PhishingURLs = subtract(e.PhishingURLs, other.PhishingURLs)
	out.PhoneNumbers = subtract(e.PhoneNumbers, other.PhoneNumbers)
	for k, v := range e.OtherData {
		if d := subtract(v, other.OtherData[k]); len(d) > 0 {
			out.OtherData[k] = d
		}
	}
	return out
}

// Count returns the number of indicators across the five core categories
func (e *ExtractedIntelligence) Count() int {
	return len(e.BankAccounts) + len(e.IFSCCodes) + len(e.UPIIDs) +
		len(e.PhishingURLs) + len(e.PhoneNumbers)
}

// IsEmpty reports whether no core indicator was found
func (e *ExtractedIntelligence) IsEmpty() bool {
	return e.Count() == 0
}

// ByCategory flattens the core categories keyed by category name
func (e *ExtractedIntelligence) ByCategory() map[string][]string {
	return map[string][]string{
		CategoryBankAccount: e.BankAccounts,
		CategoryIFSC:        e.IFSCCodes,
		CategoryUPI:         e.UPIIDs,
		CategoryURL:         e.PhishingURLs,
		CategoryPhone:       e.PhoneNumbers,
	}
}

// UniqueSorted returns the distinct non-empty values of in, sorted
func UniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func subtract(a, b []string) []string {
	drop := make(map[string]struct{}, len(b))
	for _, v := range b {
		drop[v] = struct{}{}
	}
	out := []string{}
	for _, v := range a {
		if _, ok := drop[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

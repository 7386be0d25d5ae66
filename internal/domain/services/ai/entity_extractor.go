package ai

import (
	"strconv"
	"strings"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
)

// OtherData key for currency amounts seen in the text
const OtherDataAmounts = "amounts"

// EntityExtractor mines fraud indicators out of free text. It is stateless.
type EntityExtractor struct {
	patterns *PatternLibrary
}

// NewEntityExtractor creates a new entity extractor
func NewEntityExtractor(patterns *PatternLibrary) *EntityExtractor {
	if patterns == nil {
		patterns = NewPatternLibrary()
	}
	return &EntityExtractor{patterns: patterns}
}

// ExtractFromText extracts every indicator category from one message.
// Empty text yields an empty result.
func (e *EntityExtractor) ExtractFromText(text string) *models.ExtractedIntelligence {
	result := models.NewExtractedIntelligence()
	if strings.TrimSpace(text) == "" {
		return result
	}

	// URLs go first and are blanked out so handles and digits inside them
	// are not double counted.
	result.PhishingURLs = e.patterns.MatchURLs(text)
	stripped := e.patterns.RemoveURLs(text)

	result.IFSCCodes = e.patterns.MatchIFSC(text)
	result.PhoneNumbers = e.patterns.MatchPhones(text)
	result.UPIIDs = e.extractHandles(stripped)
	result.BankAccounts = e.extractAccounts(text, result.PhoneNumbers)

	if amounts := e.patterns.MatchAmounts(text); len(amounts) > 0 {
		result.OtherData[OtherDataAmounts] = amounts
	}

	return result.Normalize()
}

// ExtractFromConversation unions the indicators of every sender message.
// Agent replies are never mined.
func (e *EntityExtractor) ExtractFromConversation(messages []models.Message) *models.ExtractedIntelligence {
	combined := models.NewExtractedIntelligence()
	for _, msg := range messages {
		if msg.Role != models.RoleSender {
			continue
		}
		combined = combined.Merge(e.ExtractFromText(msg.Content))
	}
	return combined
}

func (e *EntityExtractor) extractHandles(text string) []string {
	var handles []string
	for _, raw := range e.patterns.MatchPaymentHandles(text) {
		handle := strings.ToLower(raw)
		at := strings.LastIndexByte(handle, '@')
		if at <= 0 {
			continue
		}
		if isPaymentProvider(handle[at+1:]) {
			handles = append(handles, handle)
		}
	}
	return handles
}

func isPaymentProvider(suffix string) bool {
	if _, ok := knownHandleProviders[suffix]; ok {
		return true
	}
	if suffix == "" || len(suffix) > maxGenericProviderLen {
		return false
	}
	for _, r := range suffix {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func (e *EntityExtractor) extractAccounts(text string, phones []string) []string {
	var accounts []string
	for _, candidate := range e.patterns.MatchAccountCandidates(text) {
		if looksLikePhone(candidate) || overlapsPhone(candidate, phones) {
			continue
		}
		if isPlausibleYear(candidate) {
			continue
		}
		accounts = append(accounts, candidate)
	}
	return accounts
}

func overlapsPhone(candidate string, phones []string) bool {
	for _, phone := range phones {
		if strings.Contains(candidate, phone) || strings.Contains(phone, candidate) {
			return true
		}
	}
	return false
}

// isPlausibleYear only applies to exactly four digits; with the current
// account length floor it never matches.
func isPlausibleYear(digits string) bool {
	if len(digits) != 4 {
		return false
	}
	year, err := strconv.Atoi(digits)
	if err != nil {
		return false
	}
	return year >= 1900 && year <= 2100
}

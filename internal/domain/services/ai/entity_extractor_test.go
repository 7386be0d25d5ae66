package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
)

func TestExtractFromText_Empty(t *testing.T) {
	e := NewEntityExtractor(nil)

	for _, text := range []string{"", "   "} {
		got := e.ExtractFromText(text)
		require.NotNil(t, got)
		assert.True(t, got.IsEmpty())
		assert.Equal(t, []string{}, got.BankAccounts)
		assert.Equal(t, []string{}, got.UPIIDs)
	}
}

func TestExtractFromText_PhoneAccountDisambiguation(t *testing.T) {
	e := NewEntityExtractor(nil)

	got := e.ExtractFromText("call 9876543210 for ac 123456789012")

	assert.Equal(t, []string{"9876543210"}, got.PhoneNumbers)
	assert.Equal(t, []string{"123456789012"}, got.BankAccounts)
}

func TestExtractFromText_PrefixedPhoneNotAnAccount(t *testing.T) {
	e := NewEntityExtractor(nil)

	got := e.ExtractFromText("whatsapp 919876543210 or 09123456789")

	assert.ElementsMatch(t, []string{"9876543210", "9123456789"}, got.PhoneNumbers)
	assert.Empty(t, got.BankAccounts)
}

func TestExtractFromText_PhoneShapedAccountDropped(t *testing.T) {
	e := NewEntityExtractor(nil)

	// phone-shaped runs never land in bank accounts
	got := e.ExtractFromText("ac no 7000000000 and 5000000000")
	assert.Equal(t, []string{"5000000000"}, got.BankAccounts)
}

func TestExtractFromText_EndToEndMessage(t *testing.T) {
	e := NewEntityExtractor(nil)

	got := e.ExtractFromText("Congratulations! You won Rs 50000. Send your bank account and IFSC SBIN0001234 to claim. Call 9876543210.")

	assert.Equal(t, []string{"SBIN0001234"}, got.IFSCCodes)
	assert.Equal(t, []string{"9876543210"}, got.PhoneNumbers)
	assert.NotContains(t, got.BankAccounts, "9876543210")
	assert.Equal(t, []string{"Rs 50000"}, got.OtherData[OtherDataAmounts])
}

func TestExtractFromText_PaymentHandles(t *testing.T) {
	e := NewEntityExtractor(nil)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"known provider", "pay to Ramesh.K@YBL now", []string{"ramesh.k@ybl"}},
		{"wallet", "send to lucky-winner@paytm", []string{"lucky-winner@paytm"}},
		{"short generic suffix", "upi claims@prizebank", []string{"claims@prizebank"}},
		{"long unknown suffix", "write to agent@internationalprizes", []string{}},
		{"inside url ignored", "open https://pay.example.com/to/fraud@ybl", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractFromText(tt.text)
			assert.Equal(t, tt.want, got.UPIIDs)
		})
	}
}

func TestExtractFromText_URLs(t *testing.T) {
	e := NewEntityExtractor(nil)

	got := e.ExtractFromText("Click http://sbi-verify.in/kyc, or https://bit.ly/x1!")
	assert.Equal(t, []string{"http://sbi-verify.in/kyc", "https://bit.ly/x1"}, got.PhishingURLs)
}

func TestExtractFromText_Idempotent(t *testing.T) {
	e := NewEntityExtractor(nil)
	text := "ac 123456789012 ifsc HDFC0001234 upi a@ybl call +919876543210 http://x.in/a"

	assert.Equal(t, e.ExtractFromText(text), e.ExtractFromText(text))
}

func TestExtractFromText_Dedupes(t *testing.T) {
	e := NewEntityExtractor(nil)

	got := e.ExtractFromText("9876543210 9876543210 +919876543210 sbin0001234 SBIN0001234")
	assert.Equal(t, []string{"9876543210"}, got.PhoneNumbers)
	assert.Equal(t, []string{"SBIN0001234"}, got.IFSCCodes)
}

func TestIsPlausibleYear(t *testing.T) {
	assert.True(t, isPlausibleYear("1999"))
	assert.True(t, isPlausibleYear("2100"))
	assert.False(t, isPlausibleYear("1899"))
	assert.False(t, isPlausibleYear("19999"))
}

func TestExtractFromConversation_SenderOnly(t *testing.T) {
	e := NewEntityExtractor(nil)
	now := time.Now()

	messages := []models.Message{
		{Role: models.RoleSender, Content: "send to fraud@ybl", Timestamp: now},
		{Role: models.RoleAgent, Content: "my number is 9123456789 and upi ramesh@oksbi", Timestamp: now},
		{Role: models.RoleSender, Content: "account 123456789012", Timestamp: now},
	}

	got := e.ExtractFromConversation(messages)
	assert.Equal(t, []string{"fraud@ybl"}, got.UPIIDs)
	assert.Equal(t, []string{"123456789012"}, got.BankAccounts)
	assert.Empty(t, got.PhoneNumbers)
}

func TestExtractFromConversation_UnionMonotonic(t *testing.T) {
	e := NewEntityExtractor(nil)

	m1 := models.Message{Role: models.RoleSender, Content: "pay fraud@ybl, ifsc SBIN0001234, call 9876543210"}
	seconds := []string{
		"",
		"sorry wrong, use other@paytm",
		"ac 123456789012 link https://x.in/pay",
		"9876543210 again",
	}

	first := e.ExtractFromConversation([]models.Message{m1})
	for _, text := range seconds {
		m2 := models.Message{Role: models.RoleSender, Content: text}
		both := e.ExtractFromConversation([]models.Message{m1, m2})

		assert.Subset(t, both.BankAccounts, first.BankAccounts)
		assert.Subset(t, both.IFSCCodes, first.IFSCCodes)
		assert.Subset(t, both.UPIIDs, first.UPIIDs)
		assert.Subset(t, both.PhishingURLs, first.PhishingURLs)
		assert.Subset(t, both.PhoneNumbers, first.PhoneNumbers)
	}
}

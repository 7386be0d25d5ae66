package ai

// Lexicon used by the scorer. Keywords are matched as lowercase substrings,
// so short entries like "rs" and "won" also fire inside longer words.

var highConfidenceKeywords = []string{
	"lottery", "won", "prize", "winner", "congratulations",
	"lakhs", "crores", "claim", "reward", "lucky",
	"bank account", "account number", "ifsc", "upi",
	"otp", "pin", "password", "cvv", "card number",
	"kyc", "verification", "blocked", "suspended",
	"urgent", "immediately", "expire", "deadline",
}

var mediumConfidenceKeywords = []string{
	"transfer", "payment", "amount", "rupees", "rs",
	"click", "link", "download", "install", "app",
	"customer care", "support", "helpline", "toll-free",
	"refund", "cashback", "bonus", "offer", "discount",
}

// Matched against the uppercased message
var urgencyMarkers = []string{
	"!!!", "URGENT", "IMMEDIATELY", "NOW", "TODAY ONLY", "LIMITED TIME",
}

var largeDenominations = []string{"lakh", "crore", "million"}

var sensitiveRequests = []string{
	"send your", "share your", "provide your", "give me your",
}

// Payment handle providers: UPI apps, bank short codes and wallets
var knownHandleProviders = map[string]struct{}{
	"upi": {}, "paytm": {}, "phonepe": {}, "gpay": {},
	"oksbi": {}, "okicici": {}, "okaxis": {}, "okhdfcbank": {},
	"ybl": {}, "ibl": {}, "axl": {},
	"sbi": {}, "icici": {}, "hdfc": {}, "axis": {}, "kotak": {},
	"indus": {}, "federal": {}, "pnb": {}, "boi": {}, "barodampay": {},
	"apl": {}, "airtel": {}, "jio": {}, "freecharge": {}, "mobikwik": {},
}

const maxGenericProviderLen = 10

// Scoring contributions
const (
	highKeywordWeight   = 0.3
	mediumKeywordWeight = 0.15
	urgencyWeight       = 0.2
	amountWeight        = 0.25
	denominationWeight  = 0.3
	sensitiveWeight     = 0.25

	keywordSignalWeight  = 0.35
	patternSignalWeight  = 0.25
	externalSignalWeight = 0.40

	// ScamThreshold is the minimum combined confidence for a scam verdict
	ScamThreshold = 0.45

	maxReasonKeywords = 3
)

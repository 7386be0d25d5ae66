package models

// DetectionResult is the scorer's verdict on one message
type DetectionResult struct {
	IsScam     bool             `json:"is_scam"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason"`
	Signals    DetectionSignals `json:"signals"`
}

// DetectionSignals exposes the inputs behind a verdict
type DetectionSignals struct {
	Keyword           float64  `json:"keyword"`
	Pattern           float64  `json:"pattern"`
	External          float64  `json:"external"`
	ExternalAvailable bool     `json:"external_available"`
	MatchedKeywords   []string `json:"matched_keywords,omitempty"`
}

// ExternalAssessment is the opinion of the external classification service
type ExternalAssessment struct {
	IsScam     bool    `json:"is_scam"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

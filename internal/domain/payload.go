package domain

import "time"

// RequestType tags an outbound webhook payload.
type RequestType string

const (
	RequestFreeAssessment      RequestType = "FreeAssessment"
	RequestConsultation        RequestType = "ConsultationRequest"
	RequestImplementationGuide RequestType = "ImplementationGuide"
)

// UnansweredLabel is the answer text sent for questions left blank.
const UnansweredLabel = "Not Answered"

// LeadContact is the lead block of assessment and consultation payloads.
type LeadContact struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Challenge string `json:"challenge,omitempty"`
}

// ConsultationRequest is submitted from the results screen.
type ConsultationRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Challenge string `json:"challenge"`
}

// AnswerRecord describes one answered question in a payload.
type AnswerRecord struct {
	Section        Section `json:"section"`
	QuestionNumber int     `json:"questionNumber"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Score          int     `json:"score"`
}

// WebhookRecommendation is the reduced recommendation shape sent to external systems.
type WebhookRecommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// WebhookRecommendations groups reduced recommendations by section.
type WebhookRecommendations struct {
	Sales     []WebhookRecommendation `json:"sales"`
	Marketing []WebhookRecommendation `json:"marketing"`
	Ops       []WebhookRecommendation `json:"ops"`
}

// AssessmentPayload is posted for lead capture and consultation requests.
type AssessmentPayload struct {
	RequestType     RequestType            `json:"requestType"`
	Timestamp       time.Time              `json:"timestamp"`
	Lead            LeadContact            `json:"lead"`
	Scores          Scores                 `json:"scores"`
	Tier            string                 `json:"tier"`
	TierSummary     string                 `json:"tierSummary"`
	Answers         []AnswerRecord         `json:"answers"`
	Recommendations WebhookRecommendations `json:"recommendations"`
	DoingWell       []string               `json:"doingWell"`
}

// GuideRequest is the implementation-guide form.
type GuideRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	BusinessProcess string `json:"businessProcess"`
}

// GuideContact is the lead block of an implementation-guide payload.
type GuideContact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// GuidePayload is posted for implementation-guide requests.
type GuidePayload struct {
	RequestType     RequestType  `json:"requestType"`
	Timestamp       time.Time    `json:"timestamp"`
	Lead            GuideContact `json:"lead"`
	BusinessProcess string       `json:"businessProcess"`
}

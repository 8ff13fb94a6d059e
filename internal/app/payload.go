package app

import (
	"time"

	"ai-ops-scorecard/internal/domain"
	"ai-ops-scorecard/internal/scoring"
)

// BuildAssessmentPayload assembles the scored answer sheet sent to the webhook.
func BuildAssessmentPayload(catalog domain.Catalog, requestType domain.RequestType, lead domain.LeadContact, answers domain.Answers, now time.Time) domain.AssessmentPayload {
	results := scoring.Results(catalog, answers)
	return domain.AssessmentPayload{
		RequestType:     requestType,
		Timestamp:       now.UTC(),
		Lead:            lead,
		Scores:          results.Scores,
		Tier:            results.Tier.ID,
		TierSummary:     results.TierSummary,
		Answers:         answerRecords(catalog, answers),
		Recommendations: scoring.WebhookView(catalog, answers),
		DoingWell:       results.Recommendations.DoingWell,
	}
}

func answerRecords(catalog domain.Catalog, answers domain.Answers) []domain.AnswerRecord {
	records := make([]domain.AnswerRecord, 0, len(catalog.Questions))
	for i, q := range catalog.Questions {
		if i >= domain.QuestionCount {
			break
		}
		record := domain.AnswerRecord{
			Section:        q.Section,
			QuestionNumber: q.ID,
			Question:       q.Prompt,
			Answer:         domain.UnansweredLabel,
		}
		if v := answers[i]; v != nil {
			record.Score = *v
			if opt, ok := catalog.Option(*v); ok {
				record.Answer = opt.Label
			}
		}
		records = append(records, record)
	}
	return records
}

// BuildGuidePayload wraps an implementation-guide form for delivery.
func BuildGuidePayload(req domain.GuideRequest, now time.Time) domain.GuidePayload {
	return domain.GuidePayload{
		RequestType: domain.RequestImplementationGuide,
		Timestamp:   now.UTC(),
		Lead: domain.GuideContact{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
		},
		BusinessProcess: req.BusinessProcess,
	}
}

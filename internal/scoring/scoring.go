// Package scoring derives section scores, tiers and recommendations from an answer sheet.
// All functions are pure; nil answers count as 0.
package scoring

import (
	"fmt"
	"strings"

	"ai-ops-scorecard/internal/domain"
)

// achievementPrefixes are the action verbs dropped when a recommendation title is shown as a strength.
var achievementPrefixes = []string{"Automate ", "Auto-Generate ", "Set Up ", "Build ", "Add ", "Implement "}

// SectionScore sums the five slots belonging to section.
func SectionScore(answers domain.Answers, section domain.Section) int {
	start, end := section.Bounds()
	total := 0
	for _, v := range answers[start:end] {
		if v != nil {
			total += *v
		}
	}
	return total
}

// TotalScore sums all three sections.
func TotalScore(answers domain.Answers) int {
	total := 0
	for _, section := range domain.Sections {
		total += SectionScore(answers, section)
	}
	return total
}

// Compute returns every section score plus the total.
func Compute(answers domain.Answers) domain.Scores {
	s := domain.Scores{
		Sales:     SectionScore(answers, domain.SectionSales),
		Marketing: SectionScore(answers, domain.SectionMarketing),
		Ops:       SectionScore(answers, domain.SectionOps),
	}
	s.Total = s.Sales + s.Marketing + s.Ops
	return s
}

// TierFor returns the tier whose range contains total, or the first tier when none does.
func TierFor(tiers []domain.Tier, total int) domain.Tier {
	for _, t := range tiers {
		if t.Contains(total) {
			return t
		}
	}
	if len(tiers) == 0 {
		return domain.Tier{}
	}
	return tiers[0]
}

// AchievementLabel shortens a recommendation title into a strength badge.
func AchievementLabel(title string) string {
	for _, prefix := range achievementPrefixes {
		title = strings.TrimPrefix(title, prefix)
	}
	return title
}

// Classify places every question into exactly one bucket: fully automated questions become strengths,
// everything else (including unanswered) lands in its section's improvement list.
func Classify(catalog domain.Catalog, answers domain.Answers) domain.Classification {
	out := domain.Classification{
		Sales:     []domain.Recommendation{},
		Marketing: []domain.Recommendation{},
		Ops:       []domain.Recommendation{},
		DoingWell: []string{},
	}
	for i, score := range answers {
		rec, ok := catalog.RecommendationFor(i + 1)
		if !ok {
			// Unreachable for a validated catalog; keep the bucket count honest anyway.
			rec = domain.Recommendation{QuestionID: i + 1, Section: domain.SectionForIndex(i)}
		}
		if score != nil && *score == domain.MaxScore {
			out.DoingWell = append(out.DoingWell, AchievementLabel(rec.Title))
			continue
		}
		switch rec.Section {
		case domain.SectionSales:
			out.Sales = append(out.Sales, rec)
		case domain.SectionMarketing:
			out.Marketing = append(out.Marketing, rec)
		default:
			out.Ops = append(out.Ops, rec)
		}
	}
	return out
}

// WebhookView lists the improvement items of answered questions scoring below 2.
func WebhookView(catalog domain.Catalog, answers domain.Answers) domain.WebhookRecommendations {
	out := domain.WebhookRecommendations{
		Sales:     []domain.WebhookRecommendation{},
		Marketing: []domain.WebhookRecommendation{},
		Ops:       []domain.WebhookRecommendation{},
	}
	for i, score := range answers {
		if score == nil || *score >= domain.MaxScore {
			continue
		}
		rec, ok := catalog.RecommendationFor(i + 1)
		if !ok {
			continue
		}
		item := domain.WebhookRecommendation{Title: rec.Title, Description: rec.Description}
		switch rec.Section {
		case domain.SectionSales:
			out.Sales = append(out.Sales, item)
		case domain.SectionMarketing:
			out.Marketing = append(out.Marketing, item)
		default:
			out.Ops = append(out.Ops, item)
		}
	}
	return out
}

// DoingWell returns the strength labels of fully automated questions.
func DoingWell(catalog domain.Catalog, answers domain.Answers) []string {
	return Classify(catalog, answers).DoingWell
}

// Results bundles scores, tier and recommendations for the results view.
func Results(catalog domain.Catalog, answers domain.Answers) domain.Results {
	scores := Compute(answers)
	tier := TierFor(catalog.Tiers, scores.Total)
	return domain.Results{
		Scores:          scores,
		Tier:            tier,
		Recommendations: Classify(catalog, answers),
		TierSummary:     tier.Interpretation,
	}
}

// ReconstructAnswers synthesizes an answer sheet whose section sums equal the given totals.
// Each section is filled greedily with 2s, then a 1, then 0s. The result is lossy: only the sums are meaningful.
func ReconstructAnswers(sales, marketing, ops int) (domain.Answers, error) {
	var answers domain.Answers
	targets := map[domain.Section]int{
		domain.SectionSales:     sales,
		domain.SectionMarketing: marketing,
		domain.SectionOps:       ops,
	}
	for _, section := range domain.Sections {
		remaining := targets[section]
		if remaining < 0 || remaining > domain.MaxSectionScore {
			return domain.Answers{}, fmt.Errorf("%w: %s=%d", domain.ErrInvalidSectionScore, section, remaining)
		}
		start, end := section.Bounds()
		for i := start; i < end; i++ {
			v := min(domain.MaxScore, remaining)
			answers[i] = domain.Score(v)
			remaining -= v
		}
	}
	return answers, nil
}

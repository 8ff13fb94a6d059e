package domain

import (
	"fmt"
	"sort"
)

// DefaultCatalogID identifies the built-in scorecard content.
const DefaultCatalogID = "ai-ops-scorecard"

// Validate checks the structural invariants scoring relies on.
func (c Catalog) Validate() error {
	if len(c.Questions) != QuestionCount {
		return fmt.Errorf("%w: expected %d questions, got %d", ErrInvalidCatalog, QuestionCount, len(c.Questions))
	}
	for i, q := range c.Questions {
		if q.ID != i+1 {
			return fmt.Errorf("%w: question at position %d has id %d", ErrInvalidCatalog, i, q.ID)
		}
		if q.Section != SectionForIndex(i) {
			return fmt.Errorf("%w: question %d belongs to %q, expected %q", ErrInvalidCatalog, q.ID, q.Section, SectionForIndex(i))
		}
	}

	if len(c.Options) != MaxScore+1 {
		return fmt.Errorf("%w: expected %d answer options, got %d", ErrInvalidCatalog, MaxScore+1, len(c.Options))
	}
	for i, opt := range c.Options {
		if opt.Score != i {
			return fmt.Errorf("%w: answer option %d has score %d", ErrInvalidCatalog, i, opt.Score)
		}
	}

	if err := validateTiers(c.Tiers); err != nil {
		return err
	}

	if len(c.Recommendations) != QuestionCount {
		return fmt.Errorf("%w: expected %d recommendations, got %d", ErrInvalidCatalog, QuestionCount, len(c.Recommendations))
	}
	for i, rec := range c.Recommendations {
		if rec.QuestionID != i+1 {
			return fmt.Errorf("%w: recommendation at position %d targets question %d", ErrInvalidCatalog, i, rec.QuestionID)
		}
		if rec.Section != c.Questions[i].Section {
			return fmt.Errorf("%w: recommendation %d section %q does not match question", ErrInvalidCatalog, rec.QuestionID, rec.Section)
		}
	}
	return nil
}

// validateTiers requires the tier ranges to partition [0, MaxTotalScore].
func validateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidCatalog)
	}
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Range[0] < sorted[j].Range[0] })

	next := 0
	for _, t := range sorted {
		if t.Range[0] > t.Range[1] {
			return fmt.Errorf("%w: tier %q has inverted range", ErrInvalidCatalog, t.ID)
		}
		if t.Range[0] != next {
			return fmt.Errorf("%w: tier %q starts at %d, expected %d", ErrInvalidCatalog, t.ID, t.Range[0], next)
		}
		next = t.Range[1] + 1
	}
	if next != MaxTotalScore+1 {
		return fmt.Errorf("%w: tiers end at %d, expected %d", ErrInvalidCatalog, next-1, MaxTotalScore)
	}
	return nil
}

// Option returns the answer option with the given score.
func (c Catalog) Option(score int) (AnswerOption, bool) {
	for _, opt := range c.Options {
		if opt.Score == score {
			return opt, true
		}
	}
	return AnswerOption{}, false
}

// RecommendationFor returns the recommendation attached to a question id.
func (c Catalog) RecommendationFor(questionID int) (Recommendation, bool) {
	for _, rec := range c.Recommendations {
		if rec.QuestionID == questionID {
			return rec, true
		}
	}
	return Recommendation{}, false
}

// DefaultCatalog returns a fresh copy of the built-in scorecard content.
func DefaultCatalog() Catalog {
	return Catalog{
		ID: DefaultCatalogID,
		Questions: []Question{
			{ID: 1, Section: SectionSales, Prompt: "Do you automatically score and prioritize new leads?", Explanation: "This means using behavior data, company info, or engagement signals to rank leads by likelihood to convert, without manual review."},
			{ID: 2, Section: SectionSales, Prompt: "Are follow-ups sent automatically across all channels?", Explanation: "Including email sequences, LinkedIn messages, SMS, or calls, triggered without reps manually scheduling each touchpoint."},
			{ID: 3, Section: SectionSales, Prompt: "Does your CRM stay clean and updated automatically?", Explanation: "Auto-deduplication, enrichment of contact data, and syncing across tools, without someone manually fixing records."},
			{ID: 4, Section: SectionSales, Prompt: "Can you generate proposals or quotes automatically?", Explanation: "Creating sales decks, quotes, or contracts from CRM data, form inputs, or call summaries, without starting from scratch each time."},
			{ID: 5, Section: SectionSales, Prompt: "Do reps get automated pre-meeting briefs?", Explanation: "AI-generated summaries with prospect history, engagement signals, company news, and recommended talking points before calls."},
			{ID: 6, Section: SectionMarketing, Prompt: "Is your content automatically repurposed across formats?", Explanation: "Turning blog posts into social clips, emails into carousels, webinars into highlight reels, without manual reformatting."},
			{ID: 7, Section: SectionMarketing, Prompt: "Are leads automatically routed to the right person or sequence?", Explanation: "Based on predefined rules like territory, company size, product interest, or lead score. No manual assignment needed."},
			{ID: 8, Section: SectionMarketing, Prompt: "Do you use AI to consistently create marketing content?", Explanation: "AI workflows or agents that produce drafts, social posts, ad copy, or email campaigns on a regular schedule."},
			{ID: 9, Section: SectionMarketing, Prompt: "Is content ideation and research handled by AI?", Explanation: "AI tools that find trending topics, analyze competitors, research keywords, and suggest content ideas automatically."},
			{ID: 10, Section: SectionMarketing, Prompt: "Does your marketing personalize automatically for each prospect?", Explanation: "Adjusting messaging, offers, or content based on industry, behavior, stage, or real-time data, without manual segmentation."},
			{ID: 11, Section: SectionOps, Prompt: "Are meeting notes and action items generated automatically?", Explanation: "Transcripts turned into summaries, tasks created in your PM tool, and follow-up emails drafted right after the call ends."},
			{ID: 12, Section: SectionOps, Prompt: "Can you generate SOPs and process docs automatically?", Explanation: "Creating or updating standard operating procedures from recordings, chat logs, or workflow descriptions, without writing from scratch."},
			{ID: 13, Section: SectionOps, Prompt: "Are support tickets handled automatically by AI?", Explanation: "Auto-categorization, routing, suggested responses, or full resolution by AI agents, reducing manual ticket handling."},
			{ID: 14, Section: SectionOps, Prompt: "Are your reports and dashboards generated automatically?", Explanation: "Weekly summaries, performance reports, and KPI dashboards that compile and send themselves without manual data pulling."},
			{ID: 15, Section: SectionOps, Prompt: "Is client or employee onboarding fully automated?", Explanation: "End-to-end flows with automated checklists, emails, account setup, and training sequences with minimal manual intervention."},
		},
		Options: []AnswerOption{
			{Score: 0, Label: "Not Yet", Subtitle: "We handle this manually"},
			{Score: 1, Label: "Partially", Subtitle: "Some automation in place"},
			{Score: 2, Label: "Fully Automated", Subtitle: "Runs without manual work"},
		},
		Tiers: []Tier{
			{
				ID:             "critical",
				Name:           "Critical",
				Badge:          "Heavy Bottlenecks",
				Range:          [2]int{0, 7},
				Interpretation: "Your organization is operating mostly manually. You're likely spending 20-40 hours per week on repetitive tasks that could be automated. This creates bottlenecks, slows growth, and burns out your team.",
				Recommendations: []string{
					"Start with ONE high-impact automation in your weakest area",
					"Focus on lead follow-ups or meeting notes for quick wins with immediate ROI",
					"Document your most repetitive processes before automating",
					"Consider an automation audit to identify priority opportunities",
				},
			},
			{
				ID:             "developing",
				Name:           "Developing",
				Badge:          "Early Stage",
				Range:          [2]int{8, 14},
				Interpretation: "You've started automating, but significant gaps remain. You're probably spending 10-20 hours weekly on tasks that could run automatically. There's strong potential for efficiency gains.",
				Recommendations: []string{
					"Connect your existing automations; isolated tools waste potential",
					"Add AI to your content and documentation workflows",
					"Implement lead scoring to focus sales efforts",
					"Build automated reporting to save weekly admin time",
				},
			},
			{
				ID:             "progressing",
				Name:           "Progressing",
				Badge:          "Good Foundation",
				Range:          [2]int{15, 21},
				Interpretation: "You have solid automation foundations. Your team saves significant time, but there are still optimization opportunities. Focus on connecting systems and adding AI intelligence to existing workflows.",
				Recommendations: []string{
					"Layer AI agents onto existing automations",
					"Implement dynamic personalization in marketing",
					"Add predictive elements to lead scoring",
					"Create self-updating documentation systems",
				},
			},
			{
				ID:             "advanced",
				Name:           "Advanced",
				Badge:          "Well Automated",
				Range:          [2]int{22, 30},
				Interpretation: "Your operations are highly automated. You're ahead of most organizations. Focus on optimization, advanced AI capabilities, and maintaining your competitive edge.",
				Recommendations: []string{
					"Explore autonomous AI agents for complex workflows",
					"Implement advanced analytics and prediction",
					"Consider custom AI solutions for unique processes",
					"Share your automation playbook to scale knowledge internally",
				},
			},
		},
		Recommendations: []Recommendation{
			{QuestionID: 1, Section: SectionSales, Title: "Automate Lead Scoring", ShortDescription: "Save 5+ hrs/week on lead prioritization", Description: "Implement automatic lead scoring based on behavior, company size, and engagement signals. This alone can save your sales team 5+ hours weekly by focusing on high-intent prospects first. Start with simple rules (company size + website visits) before adding AI scoring."},
			{QuestionID: 2, Section: SectionSales, Title: "Set Up Automated Follow-Ups", ShortDescription: "Never let a lead go cold again", Description: "Create multi-channel follow-up sequences that trigger automatically. When a lead goes cold, your system should nudge them via email, then LinkedIn, then SMS, without reps manually scheduling each touchpoint. Most deals are lost due to slow or inconsistent follow-up."},
			{QuestionID: 3, Section: SectionSales, Title: "Clean Your CRM Automatically", ShortDescription: "Stop wasting time on data entry", Description: "Implement auto-deduplication, data enrichment, and sync rules. Dirty data costs sales teams 30% of their productivity. Tools like Clay or built-in CRM automation can keep records clean without manual data entry."},
			{QuestionID: 4, Section: SectionSales, Title: "Generate Proposals Automatically", ShortDescription: "Create quotes in minutes, not hours", Description: "Connect your CRM to proposal tools that auto-populate client data, pricing, and case studies. What takes 2 hours manually can become a 5-minute review. Consider PandaDoc, Qwilr, or custom n8n workflows."},
			{QuestionID: 5, Section: SectionSales, Title: "Automate Pre-Meeting Briefs", ShortDescription: "Walk into every call prepared", Description: "Give reps AI-generated briefs before every call: prospect's company news, past interactions, engagement history, and suggested talking points. This prep work typically takes 15-20 minutes per meeting. Automate it completely."},
			{QuestionID: 6, Section: SectionMarketing, Title: "Repurpose Content Automatically", ShortDescription: "Turn 1 piece into 10+ formats", Description: "One blog post should become 10+ content pieces automatically: social posts, email snippets, video scripts, carousel slides. Set up workflows that transform long-form content into platform-specific formats without manual reformatting."},
			{QuestionID: 7, Section: SectionMarketing, Title: "Automate Lead Routing", ShortDescription: "Get leads to the right person instantly", Description: "Route leads to the right person or sequence instantly based on territory, company size, product interest, or lead score. Manual assignment delays mean cold leads. Implement rules-based routing with automatic fallbacks."},
			{QuestionID: 8, Section: SectionMarketing, Title: "Implement AI Content Workflows", ShortDescription: "3x your content output", Description: "Use AI to consistently produce first drafts of blog posts, social content, ad copy, and emails. Your team reviews and refines rather than starting from blank pages. This can 3x your content output without adding headcount."},
			{QuestionID: 9, Section: SectionMarketing, Title: "Automate Content Research", ShortDescription: "Never run out of content ideas", Description: "Set up AI workflows that monitor trends, analyze competitors, research keywords, and suggest content ideas weekly. Remove the manual research phase that often bottlenecks your content calendar."},
			{QuestionID: 10, Section: SectionMarketing, Title: "Add Dynamic Personalization", ShortDescription: "Convert 50% more with personalization", Description: "Automatically adjust messaging, offers, and content based on prospect's industry, behavior, or stage. Generic messaging converts 50% worse than personalized. Implement website personalization and dynamic email content."},
			{QuestionID: 11, Section: SectionOps, Title: "Automate Meeting Notes & Actions", ShortDescription: "Save 20-30 min per meeting", Description: "Every meeting should automatically generate: transcript, summary, action items in your PM tool, and follow-up email draft. This saves 20-30 minutes per meeting and ensures nothing falls through cracks. Tools: Fireflies, Otter, or custom AI workflows."},
			{QuestionID: 12, Section: SectionOps, Title: "Auto-Generate Documentation", ShortDescription: "SOPs that write themselves", Description: "Create and update SOPs, process docs, and training materials automatically from recordings, Slack conversations, or workflow descriptions. Documentation debt slows onboarding and creates tribal knowledge problems."},
			{QuestionID: 13, Section: SectionOps, Title: "Automate Support Ticket Handling", ShortDescription: "Resolve Tier 1 tickets automatically", Description: "Implement AI for ticket categorization, routing, suggested responses, and even full resolution of common issues. Start with auto-categorization and canned responses, then graduate to AI agents for Tier 1 support."},
			{QuestionID: 14, Section: SectionOps, Title: "Automate Your Reporting", ShortDescription: "Reports that build themselves", Description: "Weekly reports, dashboards, and performance summaries should compile and send themselves. No one should spend Monday mornings pulling data into spreadsheets. Connect your tools to auto-generate and distribute reports."},
			{QuestionID: 15, Section: SectionOps, Title: "Build Automated Onboarding Flows", ShortDescription: "Onboarding that scales perfectly", Description: "Client and employee onboarding should run on autopilot: welcome sequences, account setup, training assignments, check-in scheduling, and milestone tracking. Manual onboarding doesn't scale and creates inconsistent experiences."},
		},
	}
}

package domain

import "time"

const (
	// QuestionCount is the fixed length of every answer sheet.
	QuestionCount = 15
	// QuestionsPerSection is the size of each contiguous section block.
	QuestionsPerSection = 5
	// MaxScore is the highest score a single answer can carry.
	MaxScore = 2
	// MaxSectionScore is the highest total a section can reach.
	MaxSectionScore = QuestionsPerSection * MaxScore
	// MaxTotalScore is the highest total across all sections.
	MaxTotalScore = QuestionCount * MaxScore
)

// Section groups questions into one of the three scored categories.
type Section string

const (
	SectionSales     Section = "sales"
	SectionMarketing Section = "marketing"
	SectionOps       Section = "ops"
)

// Sections lists the sections in question order.
var Sections = []Section{SectionSales, SectionMarketing, SectionOps}

// SectionForIndex maps a 0-based question index to its section.
func SectionForIndex(index int) Section {
	switch {
	case index < QuestionsPerSection:
		return SectionSales
	case index < 2*QuestionsPerSection:
		return SectionMarketing
	default:
		return SectionOps
	}
}

// Bounds returns the half-open index range [start, end) covered by the section.
func (s Section) Bounds() (int, int) {
	switch s {
	case SectionSales:
		return 0, QuestionsPerSection
	case SectionMarketing:
		return QuestionsPerSection, 2 * QuestionsPerSection
	case SectionOps:
		return 2 * QuestionsPerSection, QuestionCount
	}
	return 0, 0
}

// Valid reports whether s is one of the three known sections.
func (s Section) Valid() bool {
	return s == SectionSales || s == SectionMarketing || s == SectionOps
}

// IsSectionBoundary reports whether index is the first question of a section other than the first.
func IsSectionBoundary(index int) bool {
	return index == QuestionsPerSection || index == 2*QuestionsPerSection
}

// Screen is the view the client should render.
type Screen string

const (
	ScreenLanding     Screen = "landing"
	ScreenQuiz        Screen = "quiz"
	ScreenTransition  Screen = "transition"
	ScreenLeadCapture Screen = "leadCapture"
	ScreenResults     Screen = "results"
)

// Question is one scored prompt of the scorecard.
type Question struct {
	ID          int     `json:"id" yaml:"id"`
	Section     Section `json:"section" yaml:"section"`
	Prompt      string  `json:"prompt" yaml:"prompt"`
	Explanation string  `json:"explanation" yaml:"explanation"`
}

// AnswerOption is one of the three possible answers.
type AnswerOption struct {
	Score    int    `json:"score" yaml:"score"`
	Label    string `json:"label" yaml:"label"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
}

// Tier is a band of total scores with its interpretation.
type Tier struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Badge           string   `json:"badge" yaml:"badge"`
	Range           [2]int   `json:"range" yaml:"range"`
	Interpretation  string   `json:"interpretation" yaml:"interpretation"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
}

// Contains reports whether score falls inside the tier's inclusive range.
func (t Tier) Contains(score int) bool {
	return score >= t.Range[0] && score <= t.Range[1]
}

// Recommendation is the improvement advice attached to a question.
type Recommendation struct {
	QuestionID       int     `json:"questionId" yaml:"questionId"`
	Section          Section `json:"section" yaml:"section"`
	Title            string  `json:"title" yaml:"title"`
	ShortDescription string  `json:"shortDescription" yaml:"shortDescription"`
	Description      string  `json:"description" yaml:"description"`
}

// Catalog bundles the reference tables a session is scored against.
type Catalog struct {
	ID              string           `json:"id" yaml:"id"`
	Questions       []Question       `json:"questions" yaml:"questions"`
	Options         []AnswerOption   `json:"options" yaml:"options"`
	Tiers           []Tier           `json:"tiers" yaml:"tiers"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
}

// Answers holds one slot per question; nil marks an unanswered question.
type Answers [QuestionCount]*int

// Score returns a pointer suitable for an answer slot.
func Score(v int) *int {
	return &v
}

// ValidScore reports whether v is one of the answer option scores.
func ValidScore(v int) bool {
	return v >= 0 && v <= MaxScore
}

// Values returns the answers with nil slots counted as 0.
func (a Answers) Values() [QuestionCount]int {
	var out [QuestionCount]int
	for i, v := range a {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// HasProgress reports whether at least one question has been answered.
func (a Answers) HasProgress() bool {
	for _, v := range a {
		if v != nil {
			return true
		}
	}
	return false
}

// LeadData is the contact captured on the lead screen.
type LeadData struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionState is the mutable state owned by one quiz session.
type SessionState struct {
	Screen          Screen    `json:"screen"`
	CurrentQuestion int       `json:"currentQuestion"`
	Answers         Answers   `json:"answers"`
	Lead            *LeadData `json:"lead"`
}

// InitialState is the state of a freshly opened or restarted session.
func InitialState() SessionState {
	return SessionState{Screen: ScreenLanding}
}

// Snapshot is the read-only view of a session pushed to clients.
type Snapshot struct {
	SessionID string `json:"sessionId"`
	SessionState
	Section          Section   `json:"section"`
	HasSavedProgress bool      `json:"hasSavedProgress"`
	SharedView       bool      `json:"sharedView"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Progress is the persisted resume record.
type Progress struct {
	CurrentQuestion int       `json:"currentQuestion"`
	Answers         Answers   `json:"answers"`
	SavedAt         time.Time `json:"savedAt"`
}

// Scores are the per-section and total sums of an answer sheet.
type Scores struct {
	Sales     int `json:"sales"`
	Marketing int `json:"marketing"`
	Ops       int `json:"ops"`
	Total     int `json:"total"`
}

// Section returns the score of a single section.
func (s Scores) Section(section Section) int {
	switch section {
	case SectionSales:
		return s.Sales
	case SectionMarketing:
		return s.Marketing
	case SectionOps:
		return s.Ops
	}
	return 0
}

// Classification splits the questions into improvement buckets and strengths.
type Classification struct {
	Sales     []Recommendation `json:"sales"`
	Marketing []Recommendation `json:"marketing"`
	Ops       []Recommendation `json:"ops"`
	DoingWell []string         `json:"doingWell"`
}

// Len is the number of questions accounted for across all buckets.
func (c Classification) Len() int {
	return len(c.Sales) + len(c.Marketing) + len(c.Ops) + len(c.DoingWell)
}

// Results is everything the results view renders.
type Results struct {
	Scores          Scores         `json:"scores"`
	Tier            Tier           `json:"tier"`
	Recommendations Classification `json:"recommendations"`
	TierSummary     string         `json:"tierSummary"`
	SharedView      bool           `json:"sharedView"`
}

package http

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"ai-ops-scorecard/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minNameLength            = 2
	minBusinessProcessLength = 100
)

// ValidationError carries one message per rejected field.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid " + strings.Join(keys, ", ")
}

type fieldErrors map[string]string

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return ValidationError{Fields: f}
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validateLead trims the contact and checks it before it reaches the session.
func validateLead(lead domain.LeadData) (domain.LeadData, error) {
	lead.Name = strings.TrimSpace(lead.Name)
	lead.Email = strings.TrimSpace(lead.Email)

	errs := fieldErrors{}
	if lead.Name == "" {
		errs["name"] = "Please enter your name"
	}
	if !validEmail(lead.Email) {
		errs["email"] = "Please enter a valid email"
	}
	return lead, errs.err()
}

// validateConsultation accepts blank contact fields; the session's lead fills them in.
func validateConsultation(req domain.ConsultationRequest) (domain.ConsultationRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Company = strings.TrimSpace(req.Company)
	req.Challenge = strings.TrimSpace(req.Challenge)

	errs := fieldErrors{}
	if req.Email != "" && !validEmail(req.Email) {
		errs["email"] = "Please enter a valid email"
	}
	return req, errs.err()
}

func validateGuide(req domain.GuideRequest) (domain.GuideRequest, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.BusinessProcess = strings.TrimSpace(req.BusinessProcess)

	errs := fieldErrors{}
	if utf8.RuneCountInString(req.FirstName) < minNameLength {
		errs["firstName"] = "First name must be at least 2 characters"
	}
	if utf8.RuneCountInString(req.LastName) < minNameLength {
		errs["lastName"] = "Last name must be at least 2 characters"
	}
	if !validEmail(req.Email) {
		errs["email"] = "Please enter a valid email address"
	}
	if utf8.RuneCountInString(req.BusinessProcess) < minBusinessProcessLength {
		errs["businessProcess"] = "Please describe your process in at least 100 characters"
	}
	return req, errs.err()
}

// parseSharedScores reads the s, m and o parameters of a shared link.
// ok is false unless all three are integers within a section's range.
func parseSharedScores(get func(string) string) (sales, marketing, ops int, ok bool) {
	var values [3]int
	for i, key := range []string{"s", "m", "o"} {
		raw := get(key)
		if raw == "" {
			return 0, 0, 0, false
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > domain.MaxSectionScore {
			return 0, 0, 0, false
		}
		values[i] = v
	}
	return values[0], values[1], values[2], true
}

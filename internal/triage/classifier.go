package triage

import (
	"strings"

	"mailtriage/internal/models"
)

// Subject keywords that admit an email into the pipeline. Anything whose
// subject matches none of these is skipped before classification.
var admissionKeywords = []string{"support", "query", "request", "help"}

// categoryGroup pairs a category label with its trigger keywords. Groups are
// evaluated in this fixed order and are non-exclusive.
type categoryGroup struct {
	Category string
	Keywords []string
}

var categoryGroups = []categoryGroup{
	{Category: "account", Keywords: []string{"account", "login", "password", "signin"}},
	{Category: "billing", Keywords: []string{"billing", "payment", "invoice", "refund"}},
	{Category: "technical", Keywords: []string{"technical", "bug", "error", "not working"}},
	{Category: "feature_request", Keywords: []string{"feature", "request", "suggestion"}},
}

// CategoryGeneral is assigned when no keyword group matches
const CategoryGeneral = "general"

// mailboxFilters is the richer keyword table the mailbox path uses, both to
// build the inbox search query and to pick the single best-guess matched
// category. First group with a subject hit wins.
var mailboxFilters = []categoryGroup{
	{Category: "account", Keywords: []string{"account", "login", "password", "signin", "locked"}},
	{Category: "billing", Keywords: []string{"billing", "invoice", "payment", "refund", "charged"}},
	{Category: "technical", Keywords: []string{"technical", "bug", "error", "down", "broken", "not working"}},
	{Category: "feature_request", Keywords: []string{"feature", "suggestion", "integration"}},
	{Category: CategoryGeneral, Keywords: []string{"support", "query", "request", "help"}},
}

const (
	urgentScore       = 5.0
	negativeScore     = 2.0
	lengthBonusWindow = 5000.0
)

// Options selects the scoring variant. The CSV ingestion path scores urgency
// and sentiment only; the mailbox path additionally rewards shorter bodies
// with a continuous bonus. Both variants ship on purpose: the two ingestion
// paths of the original system diverged, and the flag keeps the divergence
// explicit instead of silently merging them.
type Options struct {
	LengthBonus bool
}

// Classification is the combined triage verdict for one email
type Classification struct {
	Sentiment       string
	Priority        string
	PriorityScore   float64
	Categories      []string
	MatchedCategory string
	Extraction      models.Extraction
}

// Admit reports whether a subject passes the admission keyword filter
func Admit(subject string) bool {
	s := strings.ToLower(subject)
	for _, kw := range admissionKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Classify runs the full triage analysis for one email. Sentiment is scored
// over the body; urgency over body plus subject so an urgent subject line
// counts even with a calm body.
func Classify(subject, body, sender string, opts Options) Classification {
	sentiment := Sentiment(body)
	priority, reason := Urgency(body + " " + subject)
	phones, emails, phrases := Extract(body)

	score := 0.0
	if priority == models.PriorityUrgent {
		score += urgentScore
	}
	if sentiment == models.SentimentNegative {
		score += negativeScore
	}
	if opts.LengthBonus {
		if bonus := 1.0 - float64(len(body))/lengthBonusWindow; bonus > 0 {
			score += bonus
		}
	}

	return Classification{
		Sentiment:     sentiment,
		Priority:      priority,
		PriorityScore: score,
		Categories:    Categories(subject, body),
		Extraction: models.Extraction{
			Phones:        phones,
			Emails:        emails,
			KeyPhrases:    phrases,
			Sentiment:     sentiment,
			UrgencyReason: reason,
		},
	}
}

// Categories returns every keyword group matching the case-folded subject
// plus body, in group order; [general] when none match.
func Categories(subject, body string) []string {
	text := strings.ToLower(subject) + " " + strings.ToLower(body)

	var cats []string
	for _, g := range categoryGroups {
		for _, kw := range g.Keywords {
			if strings.Contains(text, kw) {
				cats = append(cats, g.Category)
				break
			}
		}
	}
	if len(cats) == 0 {
		cats = append(cats, CategoryGeneral)
	}
	return cats
}

// MatchedCategory picks the single best-guess category for a mailbox
// message, using the richer filter table in fixed order against the subject.
func MatchedCategory(subject string) string {
	s := strings.ToLower(subject)
	for _, g := range mailboxFilters {
		for _, kw := range g.Keywords {
			if strings.Contains(s, kw) {
				return g.Category
			}
		}
	}
	return CategoryGeneral
}

// MailboxSearchTerms returns the flattened filter keywords used to build the
// inbox search query.
func MailboxSearchTerms() []string {
	var terms []string
	for _, g := range mailboxFilters {
		terms = append(terms, g.Keywords...)
	}
	return terms
}

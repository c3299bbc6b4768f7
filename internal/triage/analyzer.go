package triage

import (
	"regexp"
	"sort"
	"strings"

	"mailtriage/internal/models"
)

// Urgency keywords, scanned in order; the first match wins and becomes the
// urgency reason. Order is the tie-break, not position in the text.
var urgentKeywords = []string{
	"immediately",
	"urgent",
	"cannot access",
	"critical",
	"asap",
	"down",
	"failure",
}

var sentimentPositive = []string{"great", "thanks", "thank you", "appreciate", "good", "love"}

var sentimentNegative = []string{"angry", "frustrated", "bad", "issue", "problem", "unhappy", "disappointed", "cannot", "fail"}

var (
	phoneRegex = regexp.MustCompile(`\b\+?\d[\d\-(). ]{7,}\d\b`)
	emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	wordRegex  = regexp.MustCompile(`[a-z]{5,}`)
)

const keyPhraseLimit = 5

// Sentiment labels text by counting case-folded substring hits against the
// fixed positive and negative term sets. Ties resolve to neutral.
func Sentiment(text string) string {
	t := strings.ToLower(text)

	pos := 0
	for _, w := range sentimentPositive {
		if strings.Contains(t, w) {
			pos++
		}
	}
	neg := 0
	for _, w := range sentimentNegative {
		if strings.Contains(t, w) {
			neg++
		}
	}

	switch {
	case neg > pos && neg > 0:
		return models.SentimentNegative
	case pos > neg && pos > 0:
		return models.SentimentPositive
	default:
		return models.SentimentNeutral
	}
}

// Urgency scans the urgency keyword list in order and stops at the first
// case-folded match. The reason is "keyword:<match>"; empty when not urgent.
func Urgency(text string) (string, string) {
	t := strings.ToLower(text)
	for _, kw := range urgentKeywords {
		if strings.Contains(t, kw) {
			return models.PriorityUrgent, "keyword:" + kw
		}
	}
	return models.PriorityNotUrgent, ""
}

// Extract pulls phone numbers, email addresses and the top key phrases out
// of raw text. Phones and emails keep first-occurrence order with duplicates
// dropped. Key phrases are case-folded alphabetic words of length >= 5,
// ranked by frequency; ties keep first-encountered order.
func Extract(text string) (phones, emails, keyPhrases []string) {
	phones = dedupe(phoneRegex.FindAllString(text, -1))
	emails = dedupe(emailRegex.FindAllString(text, -1))
	keyPhrases = topKeyPhrases(text, keyPhraseLimit)
	return phones, emails, keyPhrases
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func topKeyPhrases(text string, limit int) []string {
	words := wordRegex.FindAllString(strings.ToLower(text), -1)

	freq := make(map[string]int, len(words))
	order := make([]string, 0, len(words))
	for _, w := range words {
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	// Stable sort on count only, so equal counts keep first-seen order
	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

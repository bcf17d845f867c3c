package cleaning

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/andreypavlenko/jobscout/modules/cleaning/model"
)

var (
	salaryNumberRe  = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
	currencySymbols = map[string]string{"$": "USD", "£": "GBP", "€": "EUR", "¥": "JPY"}
)

// ParseLocation splits a free-text location string into its components.
// Ambiguous or empty segments are left nil rather than guessed.
func ParseLocation(raw string, provinceAbbrev map[string]string) model.Location {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Location{}
	}

	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	loc := model.Location{}
	switch len(parts) {
	case 1:
		loc.City = strp(parts[0])
	case 2:
		loc.City = strp(parts[0])
		loc.Province = resolveProvince(parts[1], provinceAbbrev)
	default:
		loc.City = strp(parts[0])
		loc.Province = resolveProvince(parts[1], provinceAbbrev)
		loc.Country = strp(strings.Join(parts[2:], ", "))
	}
	return loc
}

func resolveProvince(raw string, abbrev map[string]string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if ab, ok := abbrev[strings.ToLower(trimmed)]; ok {
		return &ab
	}
	return &trimmed
}

// ParseSalary extracts a low/high/currency/period breakdown from a free-text
// salary string such as "$80,000 - $100,000 USD/year" or "$45/hr".
func ParseSalary(raw string, defaultCurrencyByTLD map[string]string, tld string) model.Salary {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Salary{}
	}

	s := model.Salary{}

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "hour") || strings.Contains(lower, "/hr"):
		s.Period = strp("hourly")
	case strings.Contains(lower, "year") || strings.Contains(lower, "annual") || strings.Contains(lower, "/yr"):
		s.Period = strp("annual")
	case strings.Contains(lower, "month"):
		s.Period = strp("monthly")
	}

	for sym, code := range currencySymbols {
		if strings.Contains(raw, sym) {
			s.Currency = strp(code)
			break
		}
	}
	if s.Currency == nil {
		for _, code := range []string{"USD", "CAD", "GBP", "EUR"} {
			if strings.Contains(strings.ToUpper(raw), code) {
				s.Currency = strp(code)
				break
			}
		}
	}
	if s.Currency == nil {
		if code, ok := defaultCurrencyByTLD[tld]; ok {
			s.Currency = strp(code)
		}
	}

	numbers := salaryNumberRe.FindAllString(raw, -1)
	values := make([]float64, 0, len(numbers))
	for _, n := range numbers {
		n = strings.ReplaceAll(n, ",", "")
		if v, err := strconv.ParseFloat(n, 64); err == nil {
			values = append(values, v)
		}
	}

	switch len(values) {
	case 0:
	case 1:
		s.Low = &values[0]
		s.High = &values[0]
	default:
		// Values are kept in the order the source gave them rather than
		// sorted: an inverted range is a signal the source data is bad,
		// and the cleaner rejects it instead of silently fixing it up.
		lo, hi := values[0], values[1]
		s.Low = &lo
		s.High = &hi
	}

	return s
}

// ParseDate attempts the common scrape date layouts, returning nil if none match.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	layouts := []string{time.RFC3339, "2006-01-02", "2006-01-02T15:04:05", "01/02/2006", "Jan 2, 2006"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func strp(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeCompanyName trims whitespace, strips a trailing legal suffix
// (Inc, Ltd, LLC, Corp, Co, ...) with its leading comma/period, and
// title-cases what remains, so suffix variants land on the same canonical
// name before any fuzzy comparison.
func NormalizeCompanyName(raw string, legalSuffixes []string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return name
	}

	for _, suffix := range legalSuffixes {
		suffix = strings.TrimSpace(suffix)
		if suffix == "" {
			continue
		}
		name = stripTrailingSuffix(name, suffix)
	}

	return titleCaseWords(strings.TrimSpace(name))
}

// stripTrailingSuffix removes a trailing "<, ><suffix><.>" tail, e.g.
// ", Inc." or " Corp", case-insensitively.
func stripTrailingSuffix(name, suffix string) string {
	trimmed := strings.TrimRight(name, ".")
	lower := strings.ToLower(trimmed)
	suffixLower := strings.ToLower(suffix)

	if !strings.HasSuffix(lower, suffixLower) {
		return name
	}
	before := trimmed[:len(trimmed)-len(suffix)]
	if !strings.HasSuffix(before, " ") && !strings.HasSuffix(before, ",") {
		return name
	}
	before = strings.TrimRight(before, " ,")
	if before == "" {
		return name
	}
	return before
}

// titleCaseWords upper-cases the first letter of each whitespace-separated
// word and lowercases the rest, leaving short all-caps acronyms like "IBM"
// alone since lowercasing them would lose information no scraper provides.
func titleCaseWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if isShoutingAcronym(w) {
			continue
		}
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// isShoutingAcronym reports whether w is a short (<=5 char) all-letters,
// all-uppercase token, e.g. "IBM" or "AWS".
func isShoutingAcronym(w string) bool {
	runes := []rune(w)
	if len(runes) == 0 || len(runes) > 5 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) || !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

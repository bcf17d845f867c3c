// Package fuzzymatch provides similarity scoring between job title
// and company name pairs, used by the cleaner's dedupe step and by company
// resolution during transfer. It has no dependency on any other module.
package fuzzymatch

import (
	"strings"
)

// TitleCompanyPair is the minimal comparable unit: a job title and the
// company that posted it, both already lowercased by the caller's config.
type TitleCompanyPair struct {
	Title   string
	Company string
}

// Config carries the thresholds and lookup tables a Matcher needs. Its fields
// match internal/config.FuzzyConfig's apart from the dedupe recency window;
// callers copy them across field by field.
type Config struct {
	TitleThreshold       float64
	CompanyThreshold     float64
	CompanyResolveThresh float64
	LegalSuffixes        []string
	TitleStopwords       []string
	AbbreviationAliases  map[string]string
}

// Matcher scores similarity between title/company pairs against configured
// thresholds and normalization tables.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a Matcher bound to the given configuration.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// TitleSimilarity reports whether two job titles are considered the same
// role after stopword stripping and abbreviation expansion, along with the
// raw blended score.
func (m *Matcher) TitleSimilarity(a, b string) (float64, bool) {
	score := m.blendedSimilarity(normalizeTitle(a, m.cfg.TitleStopwords, m.cfg.AbbreviationAliases), normalizeTitle(b, m.cfg.TitleStopwords, m.cfg.AbbreviationAliases))
	return score, score >= m.cfg.TitleThreshold
}

// CompanySimilarity reports whether two company names are considered the
// same entity (dedupe threshold, stricter than resolve threshold).
func (m *Matcher) CompanySimilarity(a, b string) (float64, bool) {
	score := m.blendedSimilarity(normalizeCompany(a, m.cfg.LegalSuffixes), normalizeCompany(b, m.cfg.LegalSuffixes))
	return score, score >= m.cfg.CompanyThreshold
}

// CompanyResolves reports whether a scraped company name resolves onto an
// existing canonical company, using the stricter resolve threshold to avoid
// merging distinct companies that happen to look alike.
func (m *Matcher) CompanyResolves(scraped, canonical string) (float64, bool) {
	score := m.blendedSimilarity(normalizeCompany(scraped, m.cfg.LegalSuffixes), normalizeCompany(canonical, m.cfg.LegalSuffixes))
	return score, score >= m.cfg.CompanyResolveThresh
}

// blendedSimilarity scores two normalized strings as the strongest of
// three signals: character-level LCS ratio, token-set Jaccard overlap, and
// subset detection. Taking the maximum lets each signal catch the variant
// class the others miss ("Sr." prefixes survive LCS poorly but pass the
// subset check; reordered tokens fail LCS but pass Jaccard).
func (m *Matcher) blendedSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	score := lcsRatio(a, b)
	if j := tokenJaccard(a, b); j > score {
		score = j
	}
	if s := subsetBonus(a, b); s > score {
		score = s
	}
	return score
}

// normalizeTitle lowercases, strips stopwords and punctuation, and expands
// known abbreviations so "Sr. SWE II" and "Senior Software Engineer" align.
func normalizeTitle(s string, stopwords []string, aliases map[string]string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	tokens := tokenize(s)

	stop := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		stop[strings.ToLower(w)] = true
	}

	var out []string
	for _, t := range tokens {
		t = strings.TrimRight(t, ".")
		if stop[t] {
			continue
		}
		if expanded, ok := aliases[t]; ok {
			out = append(out, strings.Fields(expanded)...)
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

// normalizeCompany lowercases and strips common legal suffixes ("Inc",
// "Ltd") so "Acme Inc." and "Acme" align.
func normalizeCompany(s string, suffixes []string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	tokens := tokenize(s)
	if len(tokens) == 0 {
		return s
	}

	suffixSet := make(map[string]bool, len(suffixes))
	for _, suf := range suffixes {
		suffixSet[strings.ToLower(strings.TrimSuffix(suf, "."))] = true
	}

	last := strings.TrimSuffix(tokens[len(tokens)-1], ".")
	if suffixSet[last] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// lcsRatio returns the longest-common-subsequence length normalized by the
// longer string's length.
func lcsRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	n, mLen := len(ra), len(rb)
	if n == 0 || mLen == 0 {
		return 0
	}

	prev := make([]int, mLen+1)
	curr := make([]int, mLen+1)
	for i := 1; i <= n; i++ {
		for j := 1; j <= mLen; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	longest := n
	if mLen > longest {
		longest = mLen
	}
	return float64(prev[mLen]) / float64(longest)
}

// tokenJaccard computes token-set overlap: |intersection| / |union|.
func tokenJaccard(a, b string) float64 {
	setA := toSet(strings.Fields(a))
	setB := toSet(strings.Fields(b))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// subsetBonus rewards one string's tokens being a complete subset of the
// other's (e.g. "engineer" fully contained in "software engineer").
func subsetBonus(a, b string) float64 {
	setA := toSet(strings.Fields(a))
	setB := toSet(strings.Fields(b))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	smaller, larger := setA, setB
	if len(setB) < len(setA) {
		smaller, larger = setB, setA
	}

	for t := range smaller {
		if !larger[t] {
			return 0
		}
	}
	return 1
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Package security strips or flags prompt-injection
// attempts in scraped job text before that text reaches an LLM prompt, and
// issues a per-batch verification token the scheduler uses to detect
// whether a model response was steered off-task.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/andreypavlenko/jobscout/internal/config"
)

// Finding is one injection-pattern match within a single piece of text.
type Finding struct {
	Pattern     string
	MatchedText string
}

// Sanitizer scans scraped text for prompt-injection tropes and either
// flags or neutralizes them.
type Sanitizer struct {
	cfg      config.SecurityConfig
	patterns []*regexp.Regexp
}

// New compiles the configured injection patterns into a Sanitizer.
func New(cfg config.SecurityConfig) *Sanitizer {
	compiled := make([]*regexp.Regexp, 0, len(cfg.InjectionPatterns))
	for _, p := range cfg.InjectionPatterns {
		if re, err := regexp.Compile("(?i)" + p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return &Sanitizer{cfg: cfg, patterns: compiled}
}

// Sanitize scans text for injection patterns and unpunctuated runs long
// enough to be suspicious. When HashAndReplace is enabled, matches are
// replaced with a stable placeholder instead of being passed through
// verbatim; otherwise the original text is returned unchanged and the
// finding is reported for the caller to decide what to do with the batch.
func (s *Sanitizer) Sanitize(text string) (string, []Finding) {
	var findings []Finding
	out := text

	for _, re := range s.patterns {
		matches := re.FindAllString(out, -1)
		for _, m := range matches {
			findings = append(findings, Finding{Pattern: re.String(), MatchedText: m})
		}
		if s.cfg.HashAndReplace && len(matches) > 0 {
			out = re.ReplaceAllStringFunc(out, func(m string) string {
				return placeholderFor(m)
			})
		}
	}

	if run, ok := s.longestUnpunctuatedRun(out); ok {
		findings = append(findings, Finding{Pattern: "unpunctuated_run", MatchedText: run})
	}

	return out, findings
}

// longestUnpunctuatedRun reports the longest run of words with no sentence
// punctuation, a crude signal for injected instruction text pasted into a
// posting without regard for its surrounding prose.
func (s *Sanitizer) longestUnpunctuatedRun(text string) (string, bool) {
	if s.cfg.UnpunctuatedRunTok <= 0 {
		return "", false
	}

	words := strings.Fields(text)
	start, best, bestLen := 0, 0, 0
	for i, w := range words {
		if hasSentencePunct(w) {
			start = i + 1
			continue
		}
		if i-start+1 > bestLen {
			bestLen = i - start + 1
			best = start
		}
	}

	if bestLen < s.cfg.UnpunctuatedRunTok {
		return "", false
	}
	return strings.Join(words[best:best+bestLen], " "), true
}

func hasSentencePunct(word string) bool {
	for _, r := range word {
		if r == '.' || r == '!' || r == '?' {
			return true
		}
	}
	return false
}

// placeholderFor derives a short, stable placeholder from matched text so
// repeated runs produce identical output (useful for dedupe downstream)
// without retaining the original content.
func placeholderFor(matched string) string {
	sum := 2166136261
	for _, b := range []byte(strings.ToLower(matched)) {
		sum = (sum ^ int(b)) * 16777619
	}
	return fmt.Sprintf("[REDACTED-%08x]", uint32(sum))
}

// GenerateToken creates a cryptographically random 256-bit per-batch
// verification token, rendered as SEC_TOKEN_<43 chars>, for embedding in
// the prompt. A scheduler checks the token reappears verbatim
// in the model's structured response; its absence signals the model
// followed injected instructions instead of the analysis task.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "SEC_TOKEN_" + base64.RawURLEncoding.EncodeToString(buf), nil
}

// tokenAnchorRepeats is how many times EmbedToken repeats the token in its
// own preamble/instruction block, independent of batch size. Combined with
// the per-job and closing-checksum occurrences the scheduler adds around
// the batch body, this keeps the prompt at 20 or more occurrences (the
// config.SecurityConfig.TokenMinOccurrences default) even for a one-job
// batch: 17 from EmbedToken plus 3 from the scheduler. The configured value
// itself is not read here.
const tokenAnchorRepeats = 15

// EmbedToken binds the system prompt to the per-batch security token: one
// reminder per anchor line in the preamble, plus the response-format
// instruction the model is asked to echo the token back through.
func EmbedToken(systemPrompt, token string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Security token for this batch: %s\n", token))
	for i := 0; i < tokenAnchorRepeats; i++ {
		fmt.Fprintf(&b, "[anchor %d: %s]\n", i, token)
	}
	b.WriteString(systemPrompt)
	fmt.Fprintf(&b, "\n\nInclude the exact string %q in the \"verification_token\" field of every analysis entry in your JSON response.", token)
	return b.String()
}

// VerifyToken reports whether the token appears in the response text.
func VerifyToken(response, token string) bool {
	return strings.Contains(response, token)
}

// VerifyBatchToken reports whether the token appears at least minOccurrences
// times in a batched response: the scheduler asks for the token once per
// analyzed job, so a response missing it on most jobs indicates the model
// drifted off the per-job structure the prompt required, not just a single
// bad completion. Per-job exact equality is checked separately by
// modules/llm/validator; this is a cheap pre-filter before that parse.
func (s *Sanitizer) VerifyBatchToken(response, token string, minOccurrences int) bool {
	return strings.Count(response, token) >= minOccurrences
}

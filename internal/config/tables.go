package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables is the optional YAML-file form of the lookup tables that are too
// unwieldy for single environment variables: fuzzy-match suffix/stopword/
// alias lists, cleaning's province and currency tables, and the injection
// pattern set. Only the sections present in the file override the built-in
// defaults; absent sections keep them.
type Tables struct {
	LegalSuffixes         []string          `yaml:"legal_suffixes"`
	TitleStopwords        []string          `yaml:"title_stopwords"`
	AbbreviationAliases   map[string]string `yaml:"abbreviation_aliases"`
	ProvinceAbbreviations map[string]string `yaml:"province_abbreviations"`
	DefaultCurrencyByTLD  map[string]string `yaml:"default_currency_by_tld"`
	InjectionPatterns     []string          `yaml:"injection_patterns"`
}

// loadTables reads a Tables file. A missing or unparseable file is a
// configuration error and fails startup rather than silently running with
// defaults the operator thought they had replaced.
func loadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file %s: %w", path, err)
	}
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tables file %s: %w", path, err)
	}
	return &t, nil
}

// apply overlays the file's non-empty sections onto the config.
func (t *Tables) apply(cfg *Config) {
	if len(t.LegalSuffixes) > 0 {
		cfg.Fuzzy.LegalSuffixes = t.LegalSuffixes
	}
	if len(t.TitleStopwords) > 0 {
		cfg.Fuzzy.TitleStopwords = t.TitleStopwords
	}
	if len(t.AbbreviationAliases) > 0 {
		cfg.Fuzzy.AbbreviationAliases = t.AbbreviationAliases
	}
	if len(t.ProvinceAbbreviations) > 0 {
		cfg.Cleaning.ProvinceAbbreviations = t.ProvinceAbbreviations
	}
	if len(t.DefaultCurrencyByTLD) > 0 {
		cfg.Cleaning.DefaultCurrencyByTLD = t.DefaultCurrencyByTLD
	}
	if len(t.InjectionPatterns) > 0 {
		cfg.Security.InjectionPatterns = t.InjectionPatterns
	}
}

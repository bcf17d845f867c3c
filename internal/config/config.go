package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	LLM        LLMConfig
	Security   SecurityConfig
	Fuzzy      FuzzyConfig
	Cleaning   CleaningConfig
	Preference PreferenceConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret   string
	RefreshSecret  string
	AccessExpiry   time.Duration
	RefreshExpiry  time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// TierBudget holds per-tier batching defaults for the LLM scheduler.
type TierBudget struct {
	BaseOutputTokens int
	MaxBatchSize     int
	MinBatchSize     int
}

// LLMConfig holds LLM scheduling, model and spend configuration.
type LLMConfig struct {
	Provider        string
	APIKey          string
	StandardModel   string
	PremiumModel    string
	LiteModel       string
	ContextWindow   int
	MaxOutputTokens int
	OutputMsPerTok  float64
	RPM             int
	RPD             int
	Concurrency     int
	DailyMaxUSD     float64
	MonthlyMaxUSD   float64
	CharsPerToken   float64
	Tier1           TierBudget
	Tier2           TierBudget
	Tier3           TierBudget
	LeasePollMin    time.Duration
	LeasePollMax    time.Duration
	LeaseTimeout    time.Duration
	RetryBaseDelay  time.Duration
	RetryCapDelay   time.Duration
	RetryMaxJitter  float64
	EfficiencyLowWM float64 // lower bound of the 60-80% token efficiency band
	EfficiencyHiWM  float64 // upper bound of the 60-80% token efficiency band
	EfficiencyDown  float64 // EMA threshold above which a tier downgrades to the lite model
}

// SecurityConfig holds prompt-security configuration.
type SecurityConfig struct {
	TokenMinOccurrences int
	HashAndReplace      bool
	InjectionPatterns   []string
	UnpunctuatedRunTok  int
}

// FuzzyConfig holds fuzzy-matcher thresholds and tables.
type FuzzyConfig struct {
	TitleThreshold         float64
	CompanyThreshold       float64
	CompanyResolveThresh   float64
	LegalSuffixes          []string
	TitleStopwords         []string
	AbbreviationAliases    map[string]string
	DedupeRecencyWindow    time.Duration
}

// CleaningConfig holds the cleaner's normalization tables.
type CleaningConfig struct {
	ProvinceAbbreviations map[string]string
	DefaultCurrencyByTLD  map[string]string
}

// PreferenceConfig holds preference regression and job-scoring defaults.
type PreferenceConfig struct {
	DefaultDecisionThreshold float64
	MaxScenarios             int
	RandomSeed               int64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "jobber"),
			Password:        getEnv("DB_PASSWORD", "jobber"),
			DBName:          getEnv("DB_NAME", "jobber"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
			RefreshSecret:  getEnv("JWT_REFRESH_SECRET", ""),
			AccessExpiry:   getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry:  getEnvAsDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		LLM: LLMConfig{
			Provider:       getEnv("LLM_PROVIDER", "anthropic"),
			APIKey:         getEnv("ANTHROPIC_API_KEY", ""),
			StandardModel:  getEnv("LLM_STANDARD_MODEL", "claude-haiku-4-5"),
			PremiumModel:   getEnv("LLM_PREMIUM_MODEL", "claude-sonnet-4-5"),
			LiteModel:      getEnv("LLM_LITE_MODEL", "claude-haiku-4-5"),
			ContextWindow:  getEnvAsInt("LLM_CONTEXT_WINDOW", 200000),
			MaxOutputTokens: getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", 16384),
			OutputMsPerTok: getEnvAsFloat("LLM_OUTPUT_MS_PER_TOKEN", 12.0),
			RPM:            getEnvAsInt("LLM_RPM", 50),
			RPD:            getEnvAsInt("LLM_RPD", 5000),
			Concurrency:    getEnvAsInt("LLM_CONCURRENCY", 4),
			DailyMaxUSD:    getEnvAsFloat("LLM_DAILY_MAX_USD", 0),
			MonthlyMaxUSD:  getEnvAsFloat("LLM_MONTHLY_MAX_USD", 0),
			CharsPerToken:  getEnvAsFloat("LLM_CHARS_PER_TOKEN", 4.0),
			Tier1: TierBudget{
				BaseOutputTokens: getEnvAsInt("LLM_TIER1_BASE_OUTPUT_TOKENS", 700),
				MaxBatchSize:     getEnvAsInt("LLM_TIER1_MAX_BATCH_SIZE", 20),
				MinBatchSize:     getEnvAsInt("LLM_TIER1_MIN_BATCH_SIZE", 3),
			},
			Tier2: TierBudget{
				BaseOutputTokens: getEnvAsInt("LLM_TIER2_BASE_OUTPUT_TOKENS", 1200),
				MaxBatchSize:     getEnvAsInt("LLM_TIER2_MAX_BATCH_SIZE", 5),
				MinBatchSize:     getEnvAsInt("LLM_TIER2_MIN_BATCH_SIZE", 1),
			},
			Tier3: TierBudget{
				BaseOutputTokens: getEnvAsInt("LLM_TIER3_BASE_OUTPUT_TOKENS", 1500),
				MaxBatchSize:     getEnvAsInt("LLM_TIER3_MAX_BATCH_SIZE", 5),
				MinBatchSize:     getEnvAsInt("LLM_TIER3_MIN_BATCH_SIZE", 1),
			},
			LeasePollMin:    getEnvAsDuration("LLM_LEASE_POLL_MIN", 1*time.Second),
			LeasePollMax:    getEnvAsDuration("LLM_LEASE_POLL_MAX", 30*time.Second),
			LeaseTimeout:    getEnvAsDuration("LLM_LEASE_TIMEOUT", 10*time.Minute),
			RetryBaseDelay:  getEnvAsDuration("LLM_RETRY_BASE_DELAY", 2*time.Second),
			RetryCapDelay:   getEnvAsDuration("LLM_RETRY_CAP_DELAY", 5*time.Minute),
			RetryMaxJitter:  getEnvAsFloat("LLM_RETRY_JITTER", 0.20),
			EfficiencyLowWM: getEnvAsFloat("LLM_EFFICIENCY_LOW_WATERMARK", 0.60),
			EfficiencyHiWM:  getEnvAsFloat("LLM_EFFICIENCY_HIGH_WATERMARK", 0.80),
			EfficiencyDown:  getEnvAsFloat("LLM_EFFICIENCY_DOWNGRADE", 0.85),
		},
		Security: SecurityConfig{
			TokenMinOccurrences: getEnvAsInt("SECURITY_TOKEN_MIN_OCCURRENCES", 20),
			HashAndReplace:      getEnvAsBool("HASH_AND_REPLACE_ENABLED", false),
			InjectionPatterns:   defaultInjectionPatterns(),
			UnpunctuatedRunTok:  getEnvAsInt("SECURITY_UNPUNCTUATED_RUN_TOKENS", 120),
		},
		Fuzzy: FuzzyConfig{
			TitleThreshold:       getEnvAsFloat("FUZZY_TITLE", 0.85),
			CompanyThreshold:     getEnvAsFloat("FUZZY_COMPANY", 0.90),
			CompanyResolveThresh: getEnvAsFloat("FUZZY_COMPANY_RESOLVE", 0.92),
			LegalSuffixes:        []string{"Inc", "Ltd", "LLC", "Corp", "Co"},
			TitleStopwords:       []string{"senior", "junior", "ii", "iii", "iv", "lead", "staff", "principal"},
			AbbreviationAliases:  map[string]string{"swe": "software engineer", "pm": "product manager", "sre": "site reliability engineer"},
			DedupeRecencyWindow:  getEnvAsDuration("DEDUPE_RECENCY_WINDOW", 60*24*time.Hour),
		},
		Cleaning: CleaningConfig{
			ProvinceAbbreviations: defaultProvinceAbbreviations(),
			DefaultCurrencyByTLD:  map[string]string{".ca": "CAD", ".com": "USD", ".us": "USD"},
		},
		Preference: PreferenceConfig{
			DefaultDecisionThreshold: getEnvAsFloat("DEFAULT_DECISION_THRESHOLD", 70),
			MaxScenarios:             getEnvAsInt("MAX_SCENARIOS", 5),
			RandomSeed:               int64(getEnvAsInt("PREFERENCE_RANDOM_SEED", 42)),
		},
	}

	// Optional lookup-table overrides from a YAML file
	if path := os.Getenv("CONFIG_TABLES_FILE"); path != "" {
		tables, err := loadTables(path)
		if err != nil {
			return nil, err
		}
		tables.apply(cfg)
	}

	// Validate required fields
	if cfg.JWT.AccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	return cfg, nil
}

func defaultInjectionPatterns() []string {
	return []string{
		"ignore (all )?(previous|prior|above) instructions",
		"disregard (all )?(previous|prior|above) (instructions|prompt)",
		"reveal (your |the )?system prompt",
		"you are now",
		"act as (a|an)",
		"enter developer mode",
		"enter jailbreak mode",
		"dan mode",
		"pretend (you are|to be)",
		"print your instructions",
		"output the following exactly",
	}
}

func defaultProvinceAbbreviations() map[string]string {
	return map[string]string{
		"ontario": "ON", "quebec": "QC", "british columbia": "BC", "alberta": "AB",
		"manitoba": "MB", "saskatchewan": "SK", "nova scotia": "NS",
		"new brunswick": "NB", "newfoundland": "NL", "prince edward island": "PE",
		"california": "CA", "new york": "NY", "texas": "TX", "washington": "WA",
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Addr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

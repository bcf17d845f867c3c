package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newID() string { return uuid.New().String() }

func hashPassword(pw string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), 12)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func daysAgo(d int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -d)
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	return b
}

// ── main ─────────────────────────────────────────────────────────────────────

func main() {
	_ = godotenv.Load()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_USER", "jobber"),
		envOr("DB_PASSWORD", "jobber"),
		envOr("DB_NAME", "jobber"),
		envOr("DB_SSL_MODE", "disable"),
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}
	fmt.Println("connected to database")

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	// ── clean up previous seed data ──────────────────────────────────────
	const seedEmail = "seed@jobber.dev"
	_, _ = tx.Exec(ctx, `DELETE FROM users WHERE email = $1`, seedEmail)
	_, _ = tx.Exec(ctx, `DELETE FROM raw_scrapes WHERE scraper_run_id LIKE 'seed-%'`)
	fmt.Println("cleaned previous seed data")

	// ── 1. user ──────────────────────────────────────────────────────────
	userID := newID()
	createdAt := daysAgo(120) // account created ~4 months ago

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, locale, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, seedEmail, "Alex Jobseeker", hashPassword("password123"), "en", createdAt, createdAt,
	)
	must(err, "create user")
	fmt.Printf("created user: %s / password123\n", seedEmail)

	// ── 2. preference scenarios ──────────────────────────────────────────
	// Three examples varying mostly in salary and commute, so a freshly
	// trained model has a clear signal on both.
	type scenario struct {
		values map[string]float64
		score  float64
	}
	scenarios := []scenario{
		{map[string]float64{
			"salary": 145000, "commute_time_minutes": 10, "work_hours_per_week": 40,
			"career_growth": 8, "work_life_balance": 8, "industry_fit": 7,
		}, 90},
		{map[string]float64{
			"salary": 95000, "commute_time_minutes": 35, "work_hours_per_week": 42,
			"career_growth": 6, "work_life_balance": 6, "industry_fit": 7,
		}, 50},
		{map[string]float64{
			"salary": 62000, "commute_time_minutes": 70, "work_hours_per_week": 45,
			"career_growth": 4, "work_life_balance": 5, "industry_fit": 6,
		}, 20},
	}
	for i, s := range scenarios {
		_, err = tx.Exec(ctx,
			`INSERT INTO preference_scenarios (id, user_id, values, acceptance_score, position, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			newID(), userID, mustJSON(s.values), s.score, i, daysAgo(30),
		)
		must(err, fmt.Sprintf("create scenario %d", i+1))
	}
	fmt.Printf("created %d preference scenarios (train via POST /api/v1/preferences/train)\n", len(scenarios))

	// ── 3. raw scrapes ───────────────────────────────────────────────────
	// Two providers' worth of unprocessed scrapes; the scheduler's pipeline
	// loop picks these up and runs them through cleaning, dedup, and
	// transfer on its next tick. The two Acme postings are near-duplicates
	// on purpose, so a fresh checkout exercises the merge path too.
	type rawScrape struct {
		source  string
		url     string
		payload any
	}

	scrapes := []rawScrape{
		{"generic", "https://boards.example.ca/acme/1001", map[string]any{
			"title": "Software Engineer", "company": "Acme Inc",
			"location": "Toronto, Ontario, Canada", "remote": false,
			"salary":      "$95,000 - $120,000 CAD per year",
			"description": "Acme builds logistics software used by thousands of shippers.\n\nYou will join the platform team working on our core routing services. We use Go, Postgres, and Kubernetes.\n\nWe value pragmatism and clear communication.",
			"external_id": "acme-1001", "job_type": "full-time",
			"experience_level": "mid", "apply_url": "https://acme.example.com/careers/1001",
			"company_website": "https://acme.example.com",
		}},
		{"generic", "https://jobs.example.ca/listing/77812", map[string]any{
			"title": "Software Engineer II", "company": "Acme, Inc.",
			"location": "Toronto, ON", "remote": false,
			"salary":      "95k-120k",
			"description": "Join the Acme platform team working on routing services.",
			"external_id": "jb-77812", "job_type": "full-time",
		}},
		{"generic", "https://boards.example.ca/northwind/204", map[string]any{
			"title": "Senior Data Engineer", "company": "Northwind Analytics Ltd",
			"location": "Vancouver, British Columbia", "remote": true,
			"salary":      "$140,000 - $165,000 CAD",
			"description": "Northwind's data platform ingests billions of events daily.\n\nYou will own our Spark and Airflow pipelines end to end, and mentor two junior engineers.\n\nFully remote within Canada.",
			"external_id": "nw-204", "job_type": "full-time",
			"experience_level": "senior", "apply_email": "careers@northwind.example.com",
		}},
		{"linkedin", "https://www.linkedin.com/jobs/view/3937001", map[string]any{
			"job_title": "Backend Engineer (Go)", "company_name": "CloudScale",
			"workplace_type": "Remote", "formatted_location": "Toronto, Ontario, Canada",
			"salary_insights":  map[string]any{"compensation_range": "CA$110,000/yr - CA$140,000/yr"},
			"description_text": "CloudScale runs managed Kubernetes for fintech customers.\n\nThe infrastructure team is hiring a Go engineer to work on our provisioning control plane.\n\nOn-call is one week in six, fully compensated.",
			"employment_type":  "Full-time", "seniority_level": "Mid-Senior level",
			"job_id": "3937001", "apply_url": "https://www.linkedin.com/jobs/view/3937001/apply",
		}},
		{"linkedin", "https://www.linkedin.com/jobs/view/3941205", map[string]any{
			"job_title": "Engineering Manager, Payments", "company_name": "FinEdge",
			"workplace_type": "Hybrid", "formatted_location": "Montreal, Quebec, Canada",
			"salary_insights":  map[string]any{"compensation_range": "CA$160,000/yr - CA$190,000/yr"},
			"description_text": "FinEdge processes payments for marketplaces across North America.\n\nYou will lead a team of six engineers owning our settlement pipeline.\n\nHybrid: three days a week in our Mile End office.",
			"employment_type":  "Full-time", "seniority_level": "Director",
			"job_id": "3941205", "apply_url": "https://www.linkedin.com/jobs/view/3941205/apply",
		}},
	}

	runID := "seed-" + time.Now().UTC().Format("20060102")
	for i, s := range scrapes {
		_, err = tx.Exec(ctx,
			`INSERT INTO raw_scrapes (id, source, source_url, payload, scraper_run_id, success, error_detail, processed, scraped_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, true, NULL, false, $6, $6)`,
			newID(), s.source, s.url, mustJSON(s.payload), runID, daysAgo(0).Add(-time.Duration(i)*time.Minute),
		)
		must(err, "create raw scrape "+s.url)
	}
	fmt.Printf("created %d raw scrapes (run %s); start cmd/scheduler to drain them\n", len(scrapes), runID)

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit: %v", err)
	}
	fmt.Println("seed complete")
}

func must(err error, msg string) {
	if err != nil {
		log.Fatalf("%s: %v", msg, err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package optimizer decides how many jobs to batch into a
// single LLM call, which model tier to use, and how many output tokens to
// budget, adapting all three from a rolling estimate of how efficiently
// each analysis tier uses its output token budget.
package optimizer

import (
	"fmt"
	"math"
	"sync"

	"github.com/andreypavlenko/jobscout/internal/config"
	"github.com/andreypavlenko/jobscout/modules/llm/provider"
)

// BatchPlan is what the scheduler asks for before building a request: how
// many pending jobs to pull off the queue, which model to send them to, and
// the output budget. Reason records which sizing/selection rule fired.
type BatchPlan struct {
	BatchSize       int
	Model           string
	MaxOutputTokens int
	Reason          string
}

// Optimizer tracks a token-efficiency EMA per tier and uses it to size
// batches and pick models.
type Optimizer struct {
	mu   sync.Mutex
	cfg  config.LLMConfig
	ema  map[int]float64 // tier -> exponential moving average of output-token efficiency
	emaN map[int]int     // tier -> samples seen, used to seed the EMA on the first observation
}

const emaAlpha = 0.3

// outputSafetyMargin pads the per-tier output budget so a response that
// runs slightly long is not truncated mid-JSON.
const outputSafetyMargin = 1.15

// contextHeadroom is the fraction of the model's context window a batch is
// allowed to fill; the rest absorbs estimation error.
const contextHeadroom = 0.90

// fixedPromptOverheadTokens estimates the tier instructions, security-token
// anchors, and response-format scaffolding that every batch carries
// regardless of size.
const fixedPromptOverheadTokens = 600

// perJobOverheadTokens estimates the per-job boundary markers and field
// labels beyond the description text itself.
const perJobOverheadTokens = 60

// New creates an Optimizer bound to the scheduler's LLM configuration.
func New(cfg config.LLMConfig) *Optimizer {
	return &Optimizer{cfg: cfg, ema: make(map[int]float64), emaN: make(map[int]int)}
}

// tierBudget resolves the configured TierBudget for a tier number (1-3).
func (o *Optimizer) tierBudget(tier int) config.TierBudget {
	switch tier {
	case 1:
		return o.cfg.Tier1
	case 2:
		return o.cfg.Tier2
	default:
		return o.cfg.Tier3
	}
}

// PlanBatch computes how many pending entries to lease for a tier and which
// model they should run against. The batch size is clamped between the
// tier's configured min and max, then scaled down when the efficiency EMA
// is above the target band (more output tokens spent per job than planned),
// and up when it is below the band.
func (o *Optimizer) PlanBatch(tier, pendingCount int) BatchPlan {
	budget := o.tierBudget(tier)

	o.mu.Lock()
	efficiency, seen := o.ema[tier], o.emaN[tier] > 0
	o.mu.Unlock()

	size := budget.MaxBatchSize
	reason := "no usage history: full batch"
	if seen {
		switch {
		case efficiency > o.cfg.EfficiencyHiWM:
			size = budget.MinBatchSize
			reason = fmt.Sprintf("efficiency %.2f above band: minimum batch", efficiency)
		case efficiency < o.cfg.EfficiencyLowWM:
			size = budget.MaxBatchSize
			reason = fmt.Sprintf("efficiency %.2f below band: full batch", efficiency)
		default:
			size = (budget.MinBatchSize + budget.MaxBatchSize) / 2
			reason = fmt.Sprintf("efficiency %.2f in band: midpoint batch", efficiency)
		}
	}
	if size > pendingCount {
		size = pendingCount
	}
	if size < budget.MinBatchSize && pendingCount >= budget.MinBatchSize {
		size = budget.MinBatchSize
	}
	if size < 1 {
		size = 1
	}

	model, modelReason := o.selectModel(tier, efficiency, seen)
	return BatchPlan{
		BatchSize:       size,
		Model:           model,
		MaxOutputTokens: o.outputBudget(budget, size),
		Reason:          reason + "; " + modelReason,
	}
}

// FitBatch shrinks an already-leased batch until the estimated input plus
// output budget fits the model's context window, given each candidate
// job's description length in characters. It returns the adjusted plan and
// how many of the candidates fit; size never drops below one.
func (o *Optimizer) FitBatch(plan BatchPlan, tier int, descCharCounts []int) (BatchPlan, int) {
	budget := o.tierBudget(tier)

	charsPerToken := o.cfg.CharsPerToken
	if charsPerToken <= 0 {
		charsPerToken = 4.0
	}
	window := int(float64(o.cfg.ContextWindow) * contextHeadroom)

	n := len(descCharCounts)
	if n > plan.BatchSize {
		n = plan.BatchSize
	}
	for ; n > 1; n-- {
		input := fixedPromptOverheadTokens
		for _, chars := range descCharCounts[:n] {
			input += int(float64(chars)/charsPerToken) + perJobOverheadTokens
		}
		if input+o.outputBudget(budget, n) <= window {
			break
		}
	}
	if n < 1 {
		n = 1
	}

	if n < plan.BatchSize {
		plan.Reason += fmt.Sprintf("; shrunk %d->%d to fit context window", plan.BatchSize, n)
	}
	plan.BatchSize = n
	plan.MaxOutputTokens = o.outputBudget(budget, n)
	return plan, n
}

// outputBudget is the per-tier base times the batch size with a safety
// margin, capped at the model's output limit.
func (o *Optimizer) outputBudget(budget config.TierBudget, size int) int {
	out := int(math.Round(float64(budget.BaseOutputTokens*size) * outputSafetyMargin))
	if o.cfg.MaxOutputTokens > 0 && out > o.cfg.MaxOutputTokens {
		out = o.cfg.MaxOutputTokens
	}
	return out
}

// selectModel picks standard for tier 1's high-volume extraction and
// premium for the deeper tiers, downgrading to the lite model once a
// tier's efficiency EMA crosses EfficiencyDown: the model is consistently
// filling most of its budget, so a cheaper one is tried for conservation.
func (o *Optimizer) selectModel(tier int, efficiency float64, seen bool) (string, string) {
	if seen && efficiency > o.cfg.EfficiencyDown {
		return o.cfg.LiteModel, fmt.Sprintf("efficiency %.2f sustained: lite model", efficiency)
	}
	if tier == 1 {
		return o.cfg.StandardModel, "tier 1: standard model"
	}
	return o.cfg.PremiumModel, "deep tier: premium model"
}

// RecordUsage folds one completed call's usage into the tier's efficiency
// EMA. Efficiency here is actual output tokens divided by the planned
// budget for that batch size; values near 1.0 mean the plan sized the
// request about right.
func (o *Optimizer) RecordUsage(tier int, usage provider.Usage, plan BatchPlan) {
	if plan.MaxOutputTokens == 0 {
		return
	}
	sample := float64(usage.OutputTokens) / float64(plan.MaxOutputTokens)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.emaN[tier] == 0 {
		o.ema[tier] = sample
	} else {
		o.ema[tier] = emaAlpha*sample + (1-emaAlpha)*o.ema[tier]
	}
	o.emaN[tier]++
}

// Efficiency returns the current efficiency EMA for a tier (0 if unseen).
func (o *Optimizer) Efficiency(tier int) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ema[tier]
}

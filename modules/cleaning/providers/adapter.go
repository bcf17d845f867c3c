package providers

import "github.com/andreypavlenko/jobscout/modules/cleaning/model"

// ParsedFields holds the provider-specific fields extracted from a raw
// payload before generic normalization (whitespace trimming, salary/location
// parsing) runs. Fields the adapter could not find are left nil so the
// cleaner never guesses.
type ParsedFields struct {
	JobTitle            *string
	CompanyName         *string
	LocationRaw         *string
	WorkArrangement     model.WorkArrangement
	SalaryRaw           *string
	Description         *string
	Requirements        *string
	Benefits            *string
	Industry            *string
	JobType             *string
	ExperienceLevel     *string
	PostingDateRaw      *string
	ApplicationDeadline *string
	ExternalJobID       *string
	ApplicationURL      *string
	ApplicationEmail    *string
	IsExpired           bool
	CompanyWebsite      *string
}

// Adapter extracts provider-specific fields from an opaque scrape payload.
// Variants are selected by the provider id registered, never by runtime
// type introspection.
type Adapter interface {
	Parse(payload []byte) (*ParsedFields, error)
}

// Registry maps a provider id to its adapter.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register associates a provider id with an adapter. Re-registering a
// provider id replaces the previous adapter (used by tests and config
// reload); it is never selected by type-switching on the payload.
func (r *Registry) Register(providerID string, adapter Adapter) {
	r.adapters[providerID] = adapter
}

// Get looks up the adapter for a provider id.
func (r *Registry) Get(providerID string) (Adapter, bool) {
	a, ok := r.adapters[providerID]
	return a, ok
}

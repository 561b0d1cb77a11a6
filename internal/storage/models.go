package storage

import "time"

// Transaction kind constants for raw snapshots.
const (
	RawKindRequest  = "request"
	RawKindResponse = "response"
)

// Transaction is the canonical, immutable record of one proxied
// exchange plus its derived billing and performance fields.
// Nil pointer fields mean "no data": a nil cost is a pricelist miss,
// distinct from a legitimate zero cost.
type Transaction struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"project_id"`
	Tags            []string   `json:"tags"`
	Provider        string     `json:"provider"`
	Model           *string    `json:"model"`
	Type            string     `json:"type"` // chat|completions|embedding|image_generation
	StatusCode      int        `json:"status_code"`
	InputTokens     *int64     `json:"input_tokens"`
	OutputTokens    *int64     `json:"output_tokens"`
	InputCost       *float64   `json:"input_cost"`
	OutputCost      *float64   `json:"output_cost"`
	TotalCost       *float64   `json:"total_cost"`
	GenerationSpeed *float64   `json:"generation_speed"`
	Prompt          string     `json:"prompt"`
	LastMessage     string     `json:"last_message,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RequestTime     time.Time  `json:"request_time"`
	ResponseTime    time.Time  `json:"response_time"`
}

// RawTransaction is the diagnostic request/response snapshot stored
// alongside each transaction. Always written as a request+response
// pair; cascade-deleted with its transaction.
type RawTransaction struct {
	ID            string              `json:"id"`
	TransactionID string              `json:"transaction_id"`
	Kind          string              `json:"kind"` // request|response
	Headers       map[string][]string `json:"headers"`
	Body          []byte              `json:"body"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Project is the routing record the gateway resolves by slug. Project
// management itself lives outside this service; only lookup and a
// seeding insert are provided.
type Project struct {
	ID        string       `json:"id"`
	Slug      string       `json:"slug"`
	Name      string       `json:"name"`
	Providers []AIProvider `json:"ai_providers"`
}

// AIProvider is one upstream endpoint configured for a project.
type AIProvider struct {
	Slug    string `json:"slug"`
	APIBase string `json:"api_base"`
}

// FindProvider returns the provider with the given slug, or nil.
func (p *Project) FindProvider(slug string) *AIProvider {
	for i := range p.Providers {
		if p.Providers[i].Slug == slug {
			return &p.Providers[i]
		}
	}
	return nil
}

// TransactionFilter contains parameters for filtering transactions.
type TransactionFilter struct {
	ProjectID string
	Provider  string
	Model     string
	Tags      []string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

package stats

import "time"

// UsageRecord reports token and cost totals for one (provider, model)
// series within one bucket. Cumulative fields are running sums across
// buckets, reset at the start of the query window.
type UsageRecord struct {
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	Date             time.Time `json:"date"`
	InputTokens      int64     `json:"input_tokens"`
	OutputTokens     int64     `json:"output_tokens"`
	InputCumulative  int64     `json:"input_cumulative"`
	OutputCumulative int64     `json:"output_cumulative"`
	TotalCost        float64   `json:"total_cost"`
	TransactionCount int64     `json:"transaction_count"`
}

// StatusRecord reports coarsened status-class counts for one bucket.
type StatusRecord struct {
	Date             time.Time `json:"date"`
	Status200        int64     `json:"status_200"`
	Status300        int64     `json:"status_300"`
	Status400        int64     `json:"status_400"`
	Status500        int64     `json:"status_500"`
	TransactionCount int64     `json:"transaction_count"`
}

// LatencyRecord reports mean latency and throughput for one
// (provider, model) series within one bucket. MeanLatency is in
// seconds; TokensPerSecond averages generation speed over the
// bucket's successful transactions.
type LatencyRecord struct {
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	Date             time.Time `json:"date"`
	MeanLatency      float64   `json:"mean_latency"`
	TokensPerSecond  float64   `json:"tokens_per_second"`
	TransactionCount int64     `json:"transaction_count"`
}

// UsageBucket groups usage records sharing one bucket date.
type UsageBucket struct {
	Date    time.Time     `json:"date"`
	Records []UsageRecord `json:"records"`
}

// StatusBucket holds the single aggregate status row of one bucket.
type StatusBucket struct {
	Date    time.Time      `json:"date"`
	Records []StatusRecord `json:"records"`
}

// LatencyBucket groups latency records sharing one bucket date.
type LatencyBucket struct {
	Date    time.Time       `json:"date"`
	Records []LatencyRecord `json:"records"`
}

package stats

import (
	"sort"
	"time"

	"github.com/tollgate-ai/tollgate/internal/storage"
)

// series identifies one (provider, model) line in a report. A nil
// transaction model aggregates under the empty string.
type series struct {
	provider string
	model    string
}

// agg collects the per-bucket, per-series sums every report is
// derived from.
type agg struct {
	inputTokens  int64
	outputTokens int64
	cost         float64
	latencySum   float64
	speedSum     float64
	successes    int64
	s200         int64
	s300         int64
	s400         int64
	s500         int64
	count        int64
}

// Usage reports token and cost totals per (provider, model) series.
// Cumulative fields are running sums per series in bucket order,
// starting from zero at the beginning of the query window.
func Usage(txs []*storage.Transaction, g Granularity, from, to *time.Time) []UsageBucket {
	buckets, seriesList, data := aggregate(txs, g, from, to)
	if len(buckets) == 0 {
		return []UsageBucket{}
	}

	type running struct {
		in, out int64
		cost    float64
	}
	totals := make(map[series]*running, len(seriesList))
	for _, s := range seriesList {
		totals[s] = &running{}
	}

	out := make([]UsageBucket, 0, len(buckets))
	for _, date := range buckets {
		records := make([]UsageRecord, 0, len(seriesList))
		for _, s := range seriesList {
			a := data[date][s]
			if a == nil {
				a = &agg{}
			}
			run := totals[s]
			run.in += a.inputTokens
			run.out += a.outputTokens
			run.cost += a.cost
			records = append(records, UsageRecord{
				Provider:         s.provider,
				Model:            s.model,
				Date:             date,
				InputTokens:      a.inputTokens,
				OutputTokens:     a.outputTokens,
				InputCumulative:  run.in,
				OutputCumulative: run.out,
				TotalCost:        run.cost,
				TransactionCount: a.count,
			})
		}
		out = append(out, UsageBucket{Date: date, Records: records})
	}
	return out
}

// Status reports one coarsened status-class row per bucket. Classes
// come from (status_code / 100) * 100.
func Status(txs []*storage.Transaction, g Granularity, from, to *time.Time) []StatusBucket {
	buckets, seriesList, data := aggregate(txs, g, from, to)
	if len(buckets) == 0 {
		return []StatusBucket{}
	}

	out := make([]StatusBucket, 0, len(buckets))
	for _, date := range buckets {
		record := StatusRecord{Date: date}
		for _, s := range seriesList {
			a := data[date][s]
			if a == nil {
				continue
			}
			record.Status200 += a.s200
			record.Status300 += a.s300
			record.Status400 += a.s400
			record.Status500 += a.s500
			record.TransactionCount += a.count
		}
		out = append(out, StatusBucket{Date: date, Records: []StatusRecord{record}})
	}
	return out
}

// Latency reports mean request latency and mean generation speed per
// (provider, model) series. Speed averages over the bucket's
// status-200 transactions only; both metrics are zero when their
// denominator is zero.
func Latency(txs []*storage.Transaction, g Granularity, from, to *time.Time) []LatencyBucket {
	buckets, seriesList, data := aggregate(txs, g, from, to)
	if len(buckets) == 0 {
		return []LatencyBucket{}
	}

	out := make([]LatencyBucket, 0, len(buckets))
	for _, date := range buckets {
		records := make([]LatencyRecord, 0, len(seriesList))
		for _, s := range seriesList {
			a := data[date][s]
			if a == nil {
				a = &agg{}
			}
			record := LatencyRecord{
				Provider:         s.provider,
				Model:            s.model,
				Date:             date,
				TransactionCount: a.count,
			}
			if a.count > 0 {
				record.MeanLatency = a.latencySum / float64(a.count)
			}
			if a.successes > 0 {
				record.TokensPerSecond = a.speedSum / float64(a.successes)
			}
			records = append(records, record)
		}
		out = append(out, LatencyBucket{Date: date, Records: records})
	}
	return out
}

// aggregate buckets the transactions and, when window bounds are
// given, synthesizes zero-valued rows at each boundary instant for
// every series in the input so boundary buckets always exist. Buckets
// are generated contiguously from first to last; a series absent from
// a bucket shows up as a nil entry the callers treat as zero.
func aggregate(txs []*storage.Transaction, g Granularity, from, to *time.Time) ([]time.Time, []series, map[time.Time]map[series]*agg) {
	if len(txs) == 0 {
		return nil, nil, nil
	}

	from, to = NormalizeWindow(from, to)

	seen := make(map[series]bool)
	data := make(map[time.Time]map[series]*agg)

	bucketOf := func(s series, at time.Time) *agg {
		date := g.Truncate(at)
		perSeries := data[date]
		if perSeries == nil {
			perSeries = make(map[series]*agg)
			data[date] = perSeries
		}
		a := perSeries[s]
		if a == nil {
			a = &agg{}
			perSeries[s] = a
		}
		return a
	}

	for _, tx := range txs {
		s := series{provider: tx.Provider}
		if tx.Model != nil {
			s.model = *tx.Model
		}
		seen[s] = true

		a := bucketOf(s, tx.ResponseTime)
		a.count++
		if tx.InputTokens != nil {
			a.inputTokens += *tx.InputTokens
		}
		if tx.OutputTokens != nil {
			a.outputTokens += *tx.OutputTokens
		}
		if tx.TotalCost != nil {
			a.cost += *tx.TotalCost
		}
		a.latencySum += tx.ResponseTime.Sub(tx.RequestTime).Seconds()

		switch tx.StatusCode / 100 * 100 {
		case 200:
			a.s200++
			a.successes++
			if tx.GenerationSpeed != nil {
				a.speedSum += *tx.GenerationSpeed
			}
		case 300:
			a.s300++
		case 400:
			a.s400++
		case 500:
			a.s500++
		}
	}

	// Boundary synthesis: a zero-count entry per series at each given
	// bound, so the first and last buckets of the window exist even
	// when no transaction landed in them.
	for _, bound := range []*time.Time{from, to} {
		if bound == nil {
			continue
		}
		for s := range seen {
			bucketOf(s, *bound)
		}
	}

	first, last := bucketRange(data)
	var buckets []time.Time
	for b := first; !b.After(last); b = g.Next(b) {
		buckets = append(buckets, b)
	}

	seriesList := make([]series, 0, len(seen))
	for s := range seen {
		seriesList = append(seriesList, s)
	}
	sort.Slice(seriesList, func(i, j int) bool {
		if seriesList[i].provider != seriesList[j].provider {
			return seriesList[i].provider < seriesList[j].provider
		}
		return seriesList[i].model < seriesList[j].model
	})

	return buckets, seriesList, data
}

// NormalizeWindow expands an equal from/to pair to the full calendar
// day of that timestamp. Callers filtering transactions by date should
// apply it before querying so the filter matches the reported window.
func NormalizeWindow(from, to *time.Time) (*time.Time, *time.Time) {
	if from == nil || to == nil || !from.Equal(*to) {
		return from, to
	}
	t := from.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return &start, &end
}

func bucketRange(data map[time.Time]map[series]*agg) (time.Time, time.Time) {
	var first, last time.Time
	for date := range data {
		if first.IsZero() || date.Before(first) {
			first = date
		}
		if date.After(last) {
			last = date
		}
	}
	return first, last
}

package stats

import (
	"testing"
	"time"

	"github.com/tollgate-ai/tollgate/internal/storage"
)

func statTx(provider, model string, status int, at time.Time) *storage.Transaction {
	tx := &storage.Transaction{
		Provider:     provider,
		Type:         "chat",
		StatusCode:   status,
		RequestTime:  at.Add(-2 * time.Second),
		ResponseTime: at,
	}
	if model != "" {
		tx.Model = &model
	}
	return tx
}

func withTokens(tx *storage.Transaction, in, out int64, cost float64) *storage.Transaction {
	tx.InputTokens = &in
	tx.OutputTokens = &out
	tx.TotalCost = &cost
	return tx
}

func TestUsage_EmptyInput(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	got := Usage(nil, GranularityDay, &from, &to)
	if len(got) != 0 {
		t.Errorf("got %d buckets from an empty set, want 0", len(got))
	}
	if len(Status(nil, GranularityDay, nil, nil)) != 0 {
		t.Error("status report from an empty set must be empty")
	}
}

func TestUsage_CumulativeAcrossGapBuckets(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
	txs := []*storage.Transaction{
		withTokens(statTx("openai", "gpt-4", 200, day1), 100, 50, 0.10),
		withTokens(statTx("openai", "gpt-4", 200, day3), 200, 80, 0.25),
	}

	got := Usage(txs, GranularityDay, nil, nil)
	if len(got) != 3 {
		t.Fatalf("got %d buckets, want 3 (day 2 gap-filled)", len(got))
	}

	gap := got[1]
	if !gap.Date.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("gap bucket date = %v", gap.Date)
	}
	if len(gap.Records) != 1 {
		t.Fatalf("gap bucket has %d records, want the known series", len(gap.Records))
	}
	if gap.Records[0].InputTokens != 0 || gap.Records[0].TransactionCount != 0 {
		t.Errorf("gap bucket not zero-filled: %+v", gap.Records[0])
	}
	if gap.Records[0].InputCumulative != 100 {
		t.Errorf("gap cumulative = %d, want carried 100", gap.Records[0].InputCumulative)
	}

	last := got[2].Records[0]
	if last.InputCumulative != 300 || last.OutputCumulative != 130 {
		t.Errorf("final cumulatives = %d/%d, want 300/130", last.InputCumulative, last.OutputCumulative)
	}
	if diff := last.TotalCost - 0.35; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("final cumulative cost = %v, want 0.35", last.TotalCost)
	}

	prev := int64(-1)
	for _, bucket := range got {
		if bucket.Records[0].InputCumulative < prev {
			t.Fatal("cumulative totals decreased across buckets")
		}
		prev = bucket.Records[0].InputCumulative
	}
}

func TestUsage_SeriesAreIndependent(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	txs := []*storage.Transaction{
		withTokens(statTx("openai", "gpt-4", 200, at), 100, 50, 0.10),
		withTokens(statTx("anthropic", "claude-3", 200, at.Add(time.Minute)), 30, 20, 0.05),
	}

	got := Usage(txs, GranularityDay, nil, nil)
	if len(got) != 1 {
		t.Fatalf("got %d buckets, want 1", len(got))
	}
	records := got[0].Records
	if len(records) != 2 {
		t.Fatalf("got %d records, want one per series", len(records))
	}
	// Sorted by provider then model.
	if records[0].Provider != "anthropic" || records[1].Provider != "openai" {
		t.Errorf("series order = %s, %s", records[0].Provider, records[1].Provider)
	}
	if records[0].InputCumulative != 30 || records[1].InputCumulative != 100 {
		t.Errorf("cumulatives leaked across series: %d / %d",
			records[0].InputCumulative, records[1].InputCumulative)
	}
}

func TestUsage_BoundarySynthesis(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mid := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)

	txs := []*storage.Transaction{
		withTokens(statTx("openai", "gpt-4", 200, mid), 10, 5, 0.01),
	}

	got := Usage(txs, GranularityDay, &from, &to)
	if len(got) != 5 {
		t.Fatalf("got %d buckets, want 5 covering the window", len(got))
	}
	if !got[0].Date.Equal(from) {
		t.Errorf("first bucket = %v, want window start %v", got[0].Date, from)
	}
	if !got[4].Date.Equal(to) {
		t.Errorf("last bucket = %v, want window end %v", got[4].Date, to)
	}
	if got[0].Records[0].TransactionCount != 0 {
		t.Error("synthesized boundary bucket must carry no transactions")
	}
}

func TestUsage_SameDayWindow(t *testing.T) {
	at := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	txs := []*storage.Transaction{
		withTokens(statTx("openai", "gpt-4", 200, at), 10, 5, 0.01),
	}

	got := Usage(txs, GranularityHour, &at, &at)
	if len(got) != 24 {
		t.Fatalf("got %d hour buckets, want the full calendar day", len(got))
	}
	if !got[0].Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first bucket = %v, want midnight", got[0].Date)
	}
	if !got[23].Date.Equal(time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("last bucket = %v, want 23:00", got[23].Date)
	}
	if got[14].Records[0].TransactionCount != 1 {
		t.Error("transaction not bucketed into its hour")
	}
}

func TestStatus_MixedClassesInOneBucket(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 1, 0, 0, time.UTC)
	txs := []*storage.Transaction{
		withTokens(statTx("openai", "gpt-4", 200, at), 100, 50, 0.10),
		statTx("openai", "gpt-4", 400, at.Add(2*time.Minute)),
	}

	got := Status(txs, GranularityFiveMinutes, nil, nil)
	if len(got) != 1 {
		t.Fatalf("got %d buckets, want 1", len(got))
	}
	record := got[0].Records[0]
	if record.Status200 != 1 || record.Status400 != 1 {
		t.Errorf("status counts = 200:%d 400:%d, want 1 each", record.Status200, record.Status400)
	}
	if record.Status300 != 0 || record.Status500 != 0 {
		t.Errorf("unexpected counts in empty classes: %+v", record)
	}
	if record.TransactionCount != 2 {
		t.Errorf("transaction count = %d, want 2", record.TransactionCount)
	}
}

func TestStatus_CoarsensCodes(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	txs := []*storage.Transaction{
		statTx("openai", "gpt-4", 201, at),
		statTx("openai", "gpt-4", 429, at),
		statTx("openai", "gpt-4", 503, at),
	}

	record := Status(txs, GranularityDay, nil, nil)[0].Records[0]
	if record.Status200 != 1 || record.Status400 != 1 || record.Status500 != 1 {
		t.Errorf("coarsened counts = %+v", record)
	}
}

func TestLatency_MeansAndGuards(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	fast := withTokens(statTx("openai", "gpt-4", 200, at), 100, 50, 0.10)
	speed := 25.0
	fast.GenerationSpeed = &speed

	slow := statTx("openai", "gpt-4", 200, at.Add(time.Minute))
	slow.RequestTime = slow.ResponseTime.Add(-4 * time.Second)
	slowSpeed := 5.0
	slow.GenerationSpeed = &slowSpeed

	failed := statTx("openai", "gpt-4", 500, at.Add(2*time.Minute))

	got := Latency([]*storage.Transaction{fast, slow, failed}, GranularityDay, nil, nil)
	if len(got) != 1 {
		t.Fatalf("got %d buckets, want 1", len(got))
	}
	record := got[0].Records[0]

	// Latencies 2s + 4s + 2s over three transactions.
	if diff := record.MeanLatency - 8.0/3.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("mean latency = %v, want %v", record.MeanLatency, 8.0/3.0)
	}
	// Throughput averages over the two successes only.
	if record.TokensPerSecond != 15 {
		t.Errorf("tokens per second = %v, want 15", record.TokensPerSecond)
	}
	if record.TransactionCount != 3 {
		t.Errorf("transaction count = %d, want 3", record.TransactionCount)
	}
}

func TestLatency_ZeroSuccessesYieldsZeroThroughput(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	txs := []*storage.Transaction{statTx("openai", "gpt-4", 500, at)}

	record := Latency(txs, GranularityDay, nil, nil)[0].Records[0]
	if record.TokensPerSecond != 0 {
		t.Errorf("tokens per second = %v, want 0 with no successes", record.TokensPerSecond)
	}
	if record.MeanLatency != 2 {
		t.Errorf("mean latency = %v, want 2", record.MeanLatency)
	}
}

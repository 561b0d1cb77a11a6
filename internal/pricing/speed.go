package pricing

import "time"

// GenerationSpeed returns output tokens per second for one exchange, or
// nil when there is no data to compute it from: absent or non-positive
// output token counts, and clock anomalies where the response time does
// not come after the request time, all yield "no speed" rather than 0.
func GenerationSpeed(outputTokens *int64, requestTime, responseTime time.Time) *float64 {
	if outputTokens == nil || *outputTokens <= 0 {
		return nil
	}

	elapsed := responseTime.Sub(requestTime).Seconds()
	if elapsed <= 0 {
		return nil
	}

	speed := float64(*outputTokens) / elapsed
	return &speed
}

package healthcheck

import (
	"math"

	"github.com/nowen/nowen/internal/domain"
)

// Summarize counts results per status and averages their response time.
func Summarize(results []domain.ProbeResult) domain.BatchSummary {
	summary := domain.BatchSummary{Total: len(results)}
	if len(results) == 0 {
		return summary
	}

	var sum int64
	for _, r := range results {
		switch r.Status {
		case domain.StatusOK:
			summary.OK++
		case domain.StatusTimeout:
			summary.Timeout++
		case domain.StatusRedirect:
			summary.Redirect++
		default:
			// keeps the four counts summing to Total
			summary.Error++
		}
		sum += r.ResponseTime
	}

	summary.AverageResponseTime = int64(math.Round(float64(sum) / float64(len(results))))
	return summary
}

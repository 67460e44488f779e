package healthcheck

import (
	"testing"

	"github.com/nowen/nowen/internal/domain"
)

func result(status domain.Status, ms int64) domain.ProbeResult {
	return domain.ProbeResult{Probe: domain.Probe{Status: status, ResponseTime: ms}}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		results []domain.ProbeResult
		want    domain.BatchSummary
	}{
		{
			name: "empty",
			want: domain.BatchSummary{},
		},
		{
			name: "mixed",
			results: []domain.ProbeResult{
				result(domain.StatusOK, 100),
				result(domain.StatusOK, 200),
				result(domain.StatusError, 50),
				result(domain.StatusTimeout, 10000),
				result(domain.StatusRedirect, 30),
			},
			want: domain.BatchSummary{Total: 5, OK: 2, Error: 1, Timeout: 1, Redirect: 1, AverageResponseTime: 2076},
		},
		{
			name: "half rounds up",
			results: []domain.ProbeResult{
				result(domain.StatusOK, 10),
				result(domain.StatusOK, 11),
			},
			want: domain.BatchSummary{Total: 2, OK: 2, AverageResponseTime: 11},
		},
		{
			name: "rounds down",
			results: []domain.ProbeResult{
				result(domain.StatusError, 1),
				result(domain.StatusError, 1),
				result(domain.StatusError, 2),
			},
			want: domain.BatchSummary{Total: 3, Error: 3, AverageResponseTime: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.results)
			if got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
			if sum := got.OK + got.Error + got.Timeout + got.Redirect; sum != got.Total {
				t.Errorf("counts sum to %d, total %d", sum, got.Total)
			}
		})
	}
}

package exec

import (
	"time"

	"archpanel/internal/domain"
)

// RetryState is the per-job retry bookkeeping. It is owned by the job being
// retried and never touches the executor's queue index: exhausting it
// converts the job into a recorded failure, not a queue manipulation.
type RetryState struct {
	Attempt     int
	MaxAttempts int
	Band        domain.StrengthBand
	History     []domain.RetryRecord
}

func newRetryState(maxAttempts int) *RetryState {
	return &RetryState{MaxAttempts: maxAttempts, Band: domain.BandInitial}
}

// Exhausted reports whether the retry budget is spent.
func (s *RetryState) Exhausted() bool {
	return s.Attempt >= s.MaxAttempts
}

// Record appends one attempt to the history.
func (s *RetryState) Record(strength float64, attemptErr error) {
	rec := domain.RetryRecord{
		Attempt:   s.Attempt,
		Band:      s.Band,
		Strength:  strength,
		Timestamp: time.Now(),
	}
	if attemptErr != nil {
		rec.Error = attemptErr.Error()
	}
	s.History = append(s.History, rec)
}

// Escalate advances to the next attempt and the next strength band.
func (s *RetryState) Escalate() {
	s.Attempt++
	s.Band = s.Band.NextBand()
}

package api

import "time"

// Submission is a completed answer snapshot as handed to the host pipeline.
type Submission struct {
	ID          string    `json:"id" bson:"_id"`
	FormID      string    `json:"formId" bson:"form_id"`
	FormVersion string    `json:"formVersion,omitempty" bson:"form_version,omitempty"`
	SessionID   string    `json:"sessionId,omitempty" bson:"session_id,omitempty"`
	Answers     Answers   `json:"answers" bson:"-"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submitted_at"`
}

// RetryPolicy controls how delivery of a submission is retried when the store
// rejects it. MaxAttempts includes the first attempt.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// NextBackoff returns the delay before attempt number attempt+1, given that
// attempt attempts have already failed.
func (p RetryPolicy) NextBackoff(attempt int) time.Duration {
	d := p.InitialBackoff
	if d <= 0 {
		return 0
	}
	mult := p.BackoffMultiplier
	if mult <= 0 {
		mult = 2.0
	}
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * mult)
		if p.MaxBackoff > 0 && d > p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

package metrics

import "time"

type Metrics interface {
	// Business
	RecordLocationUpdate(outcome string)
	RecordSuspiciousJump()
	RecordApproachingNotification(status string)
	RecordNotificationToken(outcome string)
	RecordUseCaseExecution(useCaseName string, success bool, duration time.Duration)

	// Infrastructure
	ObserveHTTPRequestDuration(method, path, statusCode string, duration float64)
	SetThrottleEntries(n int)
	IncDuplicateEvent(handler string)
	IncOutboxEventsProcessed(status string)
}

// Nop satisfies Metrics without recording anything.
type Nop struct{}

func (Nop) RecordLocationUpdate(string)                                {}
func (Nop) RecordSuspiciousJump()                                      {}
func (Nop) RecordApproachingNotification(string)                       {}
func (Nop) RecordNotificationToken(string)                             {}
func (Nop) RecordUseCaseExecution(string, bool, time.Duration)         {}
func (Nop) ObserveHTTPRequestDuration(string, string, string, float64) {}
func (Nop) SetThrottleEntries(int)                                     {}
func (Nop) IncDuplicateEvent(string)                                   {}
func (Nop) IncOutboxEventsProcessed(string)                            {}

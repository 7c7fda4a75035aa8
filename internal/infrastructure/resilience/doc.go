/*
Package resilience provides the circuit breaker that guards layout record writes.

# Overview

Saves go to SQLite, Redis or a remote cardspace server. When that backend keeps
failing the breaker opens and saves fail fast with ErrCircuitOpen until the
timeout passes; the saver logs the error and retries on the next change.

# Usage

	breaker := resilience.New("storage", resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return store.Save(ctx, rec)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

A cancelled context never counts as a failure.
*/
package resilience

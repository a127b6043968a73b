package volcano

import "time"

// WithPollInterval overrides the primary telemetry cadence.
func WithPollInterval(d time.Duration) func(*Coordinator) {
	return func(c *Coordinator) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithRSSIInterval overrides the signal strength cadence.
func WithRSSIInterval(d time.Duration) func(*Coordinator) {
	return func(c *Coordinator) {
		if d > 0 {
			c.rssiInterval = d
		}
	}
}

// WithReconnectInterval overrides the backoff between failed connect attempts.
func WithReconnectInterval(d time.Duration) func(*Coordinator) {
	return func(c *Coordinator) {
		if d > 0 {
			c.reconnectInterval = d
		}
	}
}

package model

import "time"

// Policy is the windowing and refresh rule of one timeframe.
type Policy struct {
	// FullWindow is how far back a full fetch reaches.
	FullWindow time.Duration
	// Retention is the maximum bar age kept after trimming.
	Retention time.Duration
	// Expiry is the maximum entry age before a full refetch.
	Expiry time.Duration
	// AlwaysRefetch forces a full-window fetch on every read.
	AlwaysRefetch bool
}

const day = 24 * time.Hour

// DefaultPolicies is the windowing table. The intraday window stays under the
// ~60 day retention of upstream providers.
var DefaultPolicies = map[Timeframe]Policy{
	TF90m: {
		FullWindow:    59 * day,
		Retention:     59 * day,
		Expiry:        2 * time.Hour,
		AlwaysRefetch: true,
	},
	TFDaily: {
		FullWindow: 365 * day,
		Retention:  365 * day,
		Expiry:     day,
	},
	TFWeek: {
		FullWindow: 730 * day,
		Retention:  365 * day,
		Expiry:     7 * day,
	},
}

// PolicyFor returns the default policy of tf.
func PolicyFor(tf Timeframe) (Policy, bool) {
	p, ok := DefaultPolicies[tf]
	return p, ok
}

// Step returns the nominal bar spacing of tf.
func (tf Timeframe) Step() time.Duration {
	switch tf {
	case TF90m:
		return 90 * time.Minute
	case TFWeek:
		return 7 * day
	default:
		return day
	}
}

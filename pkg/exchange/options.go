package exchange

import "time"

type Option func(*Options)

// Options carries per-call parameters shared across operations.
// Zero values mean "not set" and are omitted from requests.
type Options struct {
	// Depth bounds order book snapshots.
	Depth int
	// Limit bounds candle responses.
	Limit int
	// PageSize bounds paginated history responses.
	PageSize int
	// Interval selects the candle interval, e.g. "1h".
	Interval string
	// State filters order listings, e.g. "ACTIVE".
	State string
	// NetworkCode selects a blockchain network for deposit addresses.
	NetworkCode string
	StartTime   time.Time
	EndTime     time.Time
}

func WithDepth(depth int) Option {
	return func(o *Options) {
		o.Depth = depth
	}
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithPageSize(size int) Option {
	return func(o *Options) {
		o.PageSize = size
	}
}

func WithInterval(interval string) Option {
	return func(o *Options) {
		o.Interval = interval
	}
}

func WithState(state string) Option {
	return func(o *Options) {
		o.State = state
	}
}

func WithNetworkCode(code string) Option {
	return func(o *Options) {
		o.NetworkCode = code
	}
}

func WithTimeRange(start, end time.Time) Option {
	return func(o *Options) {
		o.StartTime = start
		o.EndTime = end
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

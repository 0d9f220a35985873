package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	// FailThreshold is the number of consecutive failures that opens
	// the breaker.
	FailThreshold int `json:"fail_threshold"`
	// SuccessThreshold is the number of consecutive successes in
	// half-open state that closes it again.
	SuccessThreshold int `json:"success_threshold"`
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `json:"timeout"`
}

// Breaker trips after consecutive upstream failures and blocks calls
// until a probe succeeds. Only exchange-side failures should be
// recorded; local validation errors never trip it.
type Breaker struct {
	mu        sync.Mutex
	config    Config
	state     State
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time
}

func New(config Config) *Breaker {
	return &Breaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Allow reports whether a call may proceed. When the open timeout has
// elapsed the breaker moves to half-open and lets a probe through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.config.Timeout {
			b.state = StateHalfOpen
			b.successes = 0
			return true
		}
		return false
	}
	return false
}

// Record feeds a call outcome back into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		switch b.state {
		case StateClosed:
			b.failures = 0
		case StateHalfOpen:
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				b.state = StateClosed
				b.failures = 0
				b.successes = 0
			}
		}
		return
	}

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.config.FailThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = b.now()
		b.successes = 0
	case StateOpen:
		b.openedAt = b.now()
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

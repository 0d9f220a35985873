package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testBreaker() *Breaker {
	return New(Config{
		FailThreshold:    3,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	})
}

func TestStartsClosed(t *testing.T) {
	b := testBreaker()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	b := testBreaker()
	b.Record(false)
	b.Record(false)
	assert.Equal(t, StateClosed, b.State())

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := testBreaker()
	b.Record(false)
	b.Record(false)
	b.Record(true)
	b.Record(false)
	b.Record(false)
	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenAfterTimeout(t *testing.T) {
	b := testBreaker()
	fake := time.Now()
	b.now = func() time.Time { return fake }

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	assert.False(t, b.Allow())

	fake = fake.Add(60 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestHalfOpenClosesAfterSuccesses(t *testing.T) {
	b := testBreaker()
	fake := time.Now()
	b.now = func() time.Time { return fake }

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	fake = fake.Add(60 * time.Millisecond)
	assert.True(t, b.Allow())

	b.Record(true)
	assert.Equal(t, StateHalfOpen, b.State())
	b.Record(true)
	assert.Equal(t, StateClosed, b.State())
	assert.Zero(t, b.Failures())
}

func TestHalfOpenReopensOnFailure(t *testing.T) {
	b := testBreaker()
	fake := time.Now()
	b.now = func() time.Time { return fake }

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	fake = fake.Add(60 * time.Millisecond)
	assert.True(t, b.Allow())

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestReset(t *testing.T) {
	b := testBreaker()
	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

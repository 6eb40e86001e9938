package retry

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
)

// Strategy decides whether a failed navigation attempt is retried and how
// long to sleep before the next attempt. Sleep returns (delay, stop); stop
// set means give up.
type Strategy interface {
	Sleep(attempt uint) (time.Duration, bool)
}

type never struct{}

// NewNever returns the strategy that never retries. It is the default: a
// navigation failure is normally fatal to the capture.
func NewNever() *never {
	return &never{}
}

func (n *never) Sleep(attempt uint) (time.Duration, bool) {
	return 0, true
}

// Entropy supplies the jitter source; tests pass a deterministic one.
type Entropy func(int64) int64

type exponentialBackOff struct {
	base        time.Duration
	max         time.Duration
	maxAttempts uint
	entropy     Entropy
}

func NewExponentialBackOff(base time.Duration, max time.Duration, maxAttempts uint, entropy Entropy) *exponentialBackOff {
	return &exponentialBackOff{
		base:        base,
		max:         max,
		maxAttempts: maxAttempts,
		entropy:     entropy,
	}
}

func (eb *exponentialBackOff) Sleep(attempt uint) (time.Duration, bool) {
	entropy := eb.getEntropy()
	if attempt >= eb.maxAttempts {
		return 0, true
	}

	if attempt >= 63 {
		return time.Duration(entropy(minOf(math.MaxInt64, int64(eb.max)))), false
	}

	delay, err := checkedMulInt64(1<<attempt, int64(eb.base))
	if err != nil {
		return time.Duration(entropy(minOf(math.MaxInt64, int64(eb.max)))), false
	}
	return time.Duration(entropy(minOf(delay, int64(eb.max)))), false
}

func (eb *exponentialBackOff) getEntropy() Entropy {
	if eb.entropy == nil {
		return rand.Int63n
	}
	return eb.entropy
}

func minOf[T constraints.Ordered](l T, r T) T {
	if l > r {
		return r
	}
	return l
}

var OverflowError = errors.New("overflow")

func checkedMulInt64(l int64, r int64) (int64, error) {
	if l == 0 || r == 0 {
		return l * r, nil
	}
	if l > math.MaxInt64/r {
		return 0, OverflowError
	}
	return l * r, nil
}

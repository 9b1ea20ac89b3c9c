package worker

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff doubles from 2s per attempt, caps at 5m and adds up to
// 250ms of jitter.
func ExponentialBackoff(attempt int) time.Duration {
	base := 2 * time.Second
	capDelay := 5 * time.Minute

	if attempt < 0 {
		attempt = 0
	}

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}

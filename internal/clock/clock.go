// Package clock abstracts time so that backoff sleeps, merge polling and
// recency windows can be driven deterministically in tests.
//
// Production code injects Real(); tests inject Fake(). Any function that
// would call time.Now, time.After or time.Sleep takes a Clock instead.
package clock

import "time"

// Clock abstracts the time operations the pipeline uses.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after d
	// elapses. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the current goroutine for at least d.
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

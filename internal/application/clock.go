package application

import "time"

// Clock is the time seam used by services and the page agent
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock backed by time.Now
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

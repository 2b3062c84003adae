package time

import "time"

// clock provides monotonic time since server start
// time.Since reads the monotonic clock, so wall clock jumps do not affect it
type Clock struct {
	startTime time.Time
}

func NewClock() *Clock {
	return &Clock{
		startTime: time.Now(),
	}
}

// duration since server start
func (c *Clock) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// time passed since an earlier reading of Elapsed
func (c *Clock) Since(mark time.Duration) time.Duration {
	d := c.Elapsed() - mark
	if d < 0 {
		return 0
	}
	return d
}

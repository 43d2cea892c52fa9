// Package counter holds the process-lifetime demo counter.
package counter

import (
	"math"
	"sync"
)

// Counter is a mutex-guarded uint32. The zero value starts at 0.
type Counter struct {
	mu    sync.Mutex
	value uint32
}

// Increment adds one and returns the new value. The count saturates at
// math.MaxUint32 rather than wrapping, so it never goes down.
func (c *Counter) Increment() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value < math.MaxUint32 {
		c.value++
	}
	return c.value
}

// Value returns the current count.
func (c *Counter) Value() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

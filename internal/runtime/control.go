package runtime

import (
	"sync"

	"github.com/conductor-ai/conductor/internal/adapters"
)

// controlMap is the synchronized taskId -> control handle mapping. It is
// written on worker spawn and removal and read by the steer/abort tools,
// potentially from different goroutines, so every access is locked.
type controlMap struct {
	mu      sync.RWMutex
	handles map[string]*adapters.ControlHandle
}

func newControlMap() *controlMap {
	return &controlMap{handles: make(map[string]*adapters.ControlHandle)}
}

func (c *controlMap) register(taskID string, h *adapters.ControlHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles[taskID] = h
}

func (c *controlMap) remove(taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handles, taskID)
}

func (c *controlMap) get(taskID string) (*adapters.ControlHandle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handles[taskID]
	return h, ok
}

package hooks

import "github.com/conductor-ai/conductor/pkg/core"

// Composed folds an ordered list of HookSets into a single one, so the
// agent loop can fire each lifecycle point without knowing how many
// adapters are installed.
type Composed struct {
	sets []HookSet
}

// Combine builds a Composed hook-set from zero or more HookSets, in
// installation order.
func Combine(sets ...HookSet) *Composed {
	return &Composed{sets: sets}
}

// HasTextDeltaHandler reports whether any installed hook-set supplies
// onTextDelta. The loop uses this to pick between the streaming and
// blocking provider calls.
func (c *Composed) HasTextDeltaHandler() bool {
	if c == nil {
		return false
	}
	for _, s := range c.sets {
		if s.HasTextDeltaHandler() {
			return true
		}
	}
	return false
}

func (c *Composed) FireLoopStart() {
	if c == nil {
		return
	}
	for _, s := range c.sets {
		if s.OnLoopStart != nil {
			s.OnLoopStart()
		}
	}
}

func (c *Composed) FireLoopEnd(turns int) {
	if c == nil {
		return
	}
	for _, s := range c.sets {
		if s.OnLoopEnd != nil {
			s.OnLoopEnd(turns)
		}
	}
}

func (c *Composed) FireLlmStart(messages []core.Message) {
	if c == nil {
		return
	}
	for _, s := range c.sets {
		if s.OnLlmStart != nil {
			s.OnLlmStart(messages)
		}
	}
}

func (c *Composed) FireLlmEnd(msg core.Message, durationMs int64) {
	if c == nil {
		return
	}
	for _, s := range c.sets {
		if s.OnLlmEnd != nil {
			s.OnLlmEnd(msg, durationMs)
		}
	}
}

func (c *Composed) FireToolStart(call ToolCall) {
	if c == nil {
		return
	}
	for _, s := range c.sets {
		if s.OnToolStart != nil {
			s.OnToolStart(call)
		}
	}
}

// FireToolEnd threads the result through every onToolEnd handler in order;
// each sees the (possibly-replaced) result of the previous one. If any
// handler returns an error (e.g. an abort), iteration stops immediately and
// the error is returned for the caller to propagate out of the loop.
func (c *Composed) FireToolEnd(call ToolCall, result core.ToolResult, durationMs int64) (core.ToolResult, error) {
	if c == nil {
		return result, nil
	}
	current := result
	for _, s := range c.sets {
		if s.OnToolEnd == nil {
			continue
		}
		replacement, ok, err := s.OnToolEnd(call, current, durationMs)
		if err != nil {
			return current, err
		}
		if ok {
			current = replacement
		}
	}
	return current, nil
}

func (c *Composed) FireTurnEnd(messages *[]core.Message) {
	if c == nil {
		return
	}
	for _, s := range c.sets {
		if s.OnTurnEnd != nil {
			s.OnTurnEnd(messages)
		}
	}
}

// FireTextDelta runs every onTextDelta handler synchronously, in
// installation order. Handlers must not suspend: delta ordering depends on
// this running inline with the streaming iterator.
func (c *Composed) FireTextDelta(fragment string) {
	if c == nil {
		return
	}
	for _, s := range c.sets {
		if s.OnTextDelta != nil {
			s.OnTextDelta(fragment)
		}
	}
}

// FireError runs every onError handler. A handler that panics is not
// recovered here: per the contract, onError itself must not throw a further
// exception that displaces the original.
func (c *Composed) FireError(err error) {
	if c == nil {
		return
	}
	for _, s := range c.sets {
		if s.OnError != nil {
			s.OnError(err)
		}
	}
}

// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"sync"

	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/fx"
)

// Core is the state shared by every player. Its methods are safe to call
// while the engine reports a natural end from another goroutine; lifecycle
// calls themselves must be serialized by the caller.
type Core struct {
	ctx EngineContext

	mu        sync.Mutex
	state     State
	stream    engine.StreamHandle
	attrs     Attributes
	handlers  fx.Registry
	preset    Preset
	lastErr   error
	listeners map[int]func()
	nextID    int
}

// NewCore makes sure the engine is up before any player state exists.
func NewCore(ctx EngineContext) (*Core, error) {
	if err := ctx.EnsureInitialized(); err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrEngineUnavailable, err)
	}

	return &Core{
		ctx:       ctx,
		attrs:     DefaultAttributes(),
		listeners: make(map[int]func()),
	}, nil
}

// StreamFunc operates on the active stream and its effect handlers.
type StreamFunc func(h engine.StreamHandle, handlers *fx.Registry) error

// Begin moves Stopped to Playing. open is called with the lock held and
// must return the started stream; the state is untouched when it fails.
func (c *Core) Begin(open func(Attributes) (engine.StreamHandle, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Stopped {
		return fmt.Errorf("%w: play while %s", ErrInvalidOperation, c.state)
	}

	h, err := open(c.attrs)
	if err != nil {
		return err
	}

	c.stream = h
	c.state = Playing
	c.lastErr = nil
	return nil
}

// Suspend moves Playing to Paused after pause succeeds.
func (c *Core) Suspend(pause func(engine.StreamHandle) error) error {
	return c.move(Playing, Paused, pause)
}

// Continue moves Paused to Playing after resume succeeds.
func (c *Core) Continue(resume func(engine.StreamHandle) error) error {
	return c.move(Paused, Playing, resume)
}

func (c *Core) move(from, to State, apply func(engine.StreamHandle) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != from {
		return fmt.Errorf("%w: %s while %s", ErrInvalidOperation, to, c.state)
	}
	if err := apply(c.stream); err != nil {
		return err
	}

	c.state = to
	return nil
}

// End moves Playing or Paused to Stopped. release gets the stream and the
// handler registry so it can free effect instances before closing the
// stream. The player is Stopped afterwards even when release fails, and its
// error is returned. Listeners are not notified.
func (c *Core) End(release StreamFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Stopped {
		return fmt.Errorf("%w: stop while %s", ErrInvalidOperation, c.state)
	}
	err := release(c.stream, &c.handlers)

	c.stream = engine.NoStream
	c.state = Stopped
	return err
}

// Finish records the natural end of stream h. It is ignored unless h is the
// current stream and the player is Playing or Paused, so a late report from
// a stream that was already stopped changes nothing.
func (c *Core) Finish(h engine.StreamHandle, err error) {
	c.mu.Lock()
	if h == engine.NoStream || h != c.stream || c.state == Stopped {
		c.mu.Unlock()
		return
	}

	c.state = Stopped
	c.stream = engine.NoStream
	c.lastErr = err
	c.handlers.Reset()

	fns := make([]func(), 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if fn, ok := c.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// WithStream runs fn on the active stream. It fails with ErrInvalidOperation
// when the player is Stopped.
func (c *Core) WithStream(fn StreamFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Stopped {
		return fmt.Errorf("%w: no active stream", ErrInvalidOperation)
	}
	return fn(c.stream, &c.handlers)
}

// SetAttribute clamps and stores v. When a stream is active the stored
// value is pushed to it through push.
func (c *Core) SetAttribute(a engine.Attribute, v float64, push func(engine.StreamHandle, engine.Attribute, float64) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.attrs.set(a, v)
	if !ok {
		return fmt.Errorf("unknown attribute %d", a)
	}
	if c.state == Stopped || push == nil {
		return nil
	}
	return push(c.stream, a, v)
}

// PushAttributes sends every stored attribute to stream h.
func PushAttributes(a Attributes, h engine.StreamHandle, push func(engine.StreamHandle, engine.Attribute, float64) error) error {
	return a.each(func(attr engine.Attribute, v float64) error {
		return push(h, attr, v)
	})
}

func (c *Core) Attributes() Attributes {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attrs
}

func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Core) IsPlaying() bool {
	return c.State() == Playing
}

// GetHandler returns the active stream, or engine.NoStream when Stopped.
func (c *Core) GetHandler() engine.StreamHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// Err returns the error that ended the last stream, nil after a clean end.
func (c *Core) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Core) GetFXHandler(t fx.Type) fx.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers.Get(t)
}

func (c *Core) SetFXHandler(t fx.Type, h fx.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers.Set(t, h)
}

// SetPreset reconfigures the engine. Every player on the same engine is
// affected; streams already open keep their buffers until reopened.
func (c *Core) SetPreset(p Preset) {
	if _, ok := p.Settings(); !ok {
		return
	}

	c.mu.Lock()
	c.preset = p
	c.mu.Unlock()

	ApplyPreset(c.ctx, p)
}

// Preset returns the last preset applied through this Core.
func (c *Core) Preset() Preset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preset
}

// OnPlaybackEnded registers fn to run after every natural end, in
// registration order. It is never run on Stop.
func (c *Core) OnPlaybackEnded(fn func()) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

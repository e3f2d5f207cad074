// SPDX-License-Identifier: EPL-2.0

package beepengine

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"

	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/fx"
)

const DefaultSampleRate = 44100

// defaults match the "default" latency preset.
var defaults = map[engine.Param]int{
	engine.DeviceBufferLength:   200,
	engine.DevicePeriod:         25,
	engine.UpdatePeriod:         25,
	engine.PlaybackBufferLength: 400,
}

// Engine is an engine.Engine backed by a beep.Mixer and a Sink.
type Engine struct {
	sink   Sink
	rate   beep.SampleRate
	logger *log.Logger

	mu         sync.Mutex
	settings   map[engine.Param]int
	opened     Buffers
	running    bool
	mixer      *beep.Mixer
	streams    map[engine.StreamHandle]*voice
	lastStream engine.StreamHandle
	lastEffect fx.Handle
}

var _ engine.Engine = (*Engine)(nil)

type Option func(*Engine)

// WithLogger sets where the engine reports device and stream events.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSampleRate sets the mix rate. Every stream is resampled to it.
func WithSampleRate(rate int) Option {
	return func(e *Engine) {
		if rate > 0 {
			e.rate = beep.SampleRate(rate)
		}
	}
}

// New returns an engine playing through sink. The sink is opened by the
// first EnsureInitialized.
func New(sink Sink, opts ...Option) *Engine {
	e := &Engine{
		sink:     sink,
		rate:     DefaultSampleRate,
		logger:   log.New(io.Discard, "", 0),
		settings: make(map[engine.Param]int, len(defaults)),
		streams:  make(map[engine.StreamHandle]*voice),
	}
	for p, v := range defaults {
		e.settings[p] = v
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) SampleRate() int { return int(e.rate) }

func (e *Engine) frames(p engine.Param) int {
	return max(e.rate.N(time.Duration(e.settings[p])*time.Millisecond), 1)
}

func (e *Engine) buffers() Buffers {
	return Buffers{
		Device: e.frames(engine.DeviceBufferLength),
		Update: e.frames(engine.UpdatePeriod),
	}
}

// EnsureInitialized opens the sink on first use. Later calls apply buffer
// sizes changed by Configure, but only while no stream is open.
func (e *Engine) EnsureInitialized() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	want := e.buffers()

	if !e.running {
		mixer := &beep.Mixer{}
		if err := e.sink.Open(e.rate, want, mixer); err != nil {
			return fmt.Errorf("%w: %w", engine.ErrEngineUnavailable, err)
		}

		e.mixer = mixer
		e.opened = want
		e.running = true
		e.logger.Printf("beepengine: sink open at %d Hz, device buffer %d frames", e.rate, want.Device)
		return nil
	}

	if want == e.opened || len(e.streams) > 0 {
		return nil
	}
	if err := e.sink.Resize(want); err != nil {
		e.running = false
		return fmt.Errorf("%w: %w", engine.ErrEngineUnavailable, err)
	}
	e.opened = want
	e.logger.Printf("beepengine: sink resized, device buffer %d frames, update %d frames", want.Device, want.Update)
	return nil
}

// Configure stores a value in milliseconds. Non-positive values and unknown
// parameters are ignored. DevicePeriod is recorded but beep has no use for
// it.
func (e *Engine) Configure(p engine.Param, value int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := defaults[p]; !ok || value <= 0 {
		e.logger.Printf("beepengine: ignoring %v=%d", p, value)
		return
	}
	e.settings[p] = value
}

// Setting returns the stored value of p in milliseconds.
func (e *Engine) Setting(p engine.Param) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings[p]
}

// Shutdown closes every stream without reporting an end and closes the
// sink. A later EnsureInitialized opens it again.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}

	var errs []error
	e.sink.Lock()
	for h, v := range e.streams {
		v.kill()
		delete(e.streams, h)
		if err := v.src.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.mixer.Clear()
	e.sink.Unlock()

	if err := e.sink.Close(); err != nil {
		errs = append(errs, err)
	}
	e.running = false
	e.logger.Print("beepengine: sink closed")

	return errors.Join(errs...)
}

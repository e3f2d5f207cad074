// SPDX-License-Identifier: EPL-2.0

// Package enginetest provides an in-memory engine.Engine that records every
// call, for testing players without an audio device.
package enginetest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/fx"
)

// Setting is one recorded Configure call.
type Setting struct {
	Param engine.Param
	Value int
}

// Stream is the recorded state of an open stream.
type Stream struct {
	Source  audio.Source
	Started bool
	Paused  bool
	Attrs   map[engine.Attribute]float64
	Effects map[fx.Handle]fx.Type

	onEnd func(error)
}

// Engine is a fake engine. Set InitErr before use to make initialization
// fail; set FailEffects to make CreateEffect fail.
type Engine struct {
	InitErr     error
	FailEffects bool

	mu         sync.Mutex
	inits      int
	settings   []Setting
	streams    map[engine.StreamHandle]*Stream
	nextStream engine.StreamHandle
	nextEffect fx.Handle
	removed    []fx.Handle
}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{streams: make(map[engine.StreamHandle]*Stream)}
}

func (e *Engine) EnsureInitialized() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.inits++
	if e.InitErr != nil {
		return fmt.Errorf("%w: %w", engine.ErrEngineUnavailable, e.InitErr)
	}
	return nil
}

func (e *Engine) Configure(p engine.Param, value int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = append(e.settings, Setting{p, value})
}

func (e *Engine) OpenStream(src audio.Source, onEnd func(error)) (engine.StreamHandle, error) {
	if src == nil {
		return engine.NoStream, errors.New("nil source")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextStream++
	e.streams[e.nextStream] = &Stream{
		Source:  src,
		Attrs:   make(map[engine.Attribute]float64),
		Effects: make(map[fx.Handle]fx.Type),
		onEnd:   onEnd,
	}
	return e.nextStream, nil
}

func (e *Engine) stream(h engine.StreamHandle) (*Stream, error) {
	s, ok := e.streams[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", engine.ErrUnknownStream, h)
	}
	return s, nil
}

func (e *Engine) StartStream(h engine.StreamHandle) error {
	return e.update(h, func(s *Stream) { s.Started = true })
}

func (e *Engine) PauseStream(h engine.StreamHandle) error {
	return e.update(h, func(s *Stream) { s.Paused = true })
}

func (e *Engine) ResumeStream(h engine.StreamHandle) error {
	return e.update(h, func(s *Stream) { s.Paused = false })
}

func (e *Engine) update(h engine.StreamHandle, fn func(*Stream)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.stream(h)
	if err != nil {
		return err
	}
	fn(s)
	return nil
}

func (e *Engine) CloseStream(h engine.StreamHandle) error {
	e.mu.Lock()
	s, err := e.stream(h)
	if err == nil {
		delete(e.streams, h)
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	return s.Source.Close()
}

func (e *Engine) SetAttribute(h engine.StreamHandle, a engine.Attribute, v float64) error {
	return e.update(h, func(s *Stream) { s.Attrs[a] = v })
}

func (e *Engine) CreateEffect(h engine.StreamHandle, t fx.Type, _ int) (fx.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.stream(h)
	if err != nil {
		return fx.None, err
	}
	if e.FailEffects {
		return fx.None, fmt.Errorf("%w: %v", engine.ErrUnsupportedEffect, t)
	}

	e.nextEffect++
	s.Effects[e.nextEffect] = t
	return e.nextEffect, nil
}

func (e *Engine) RemoveEffect(h engine.StreamHandle, fxh fx.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.stream(h)
	if err != nil {
		return err
	}
	if _, ok := s.Effects[fxh]; !ok {
		return fmt.Errorf("%w: %d", engine.ErrUnknownEffect, fxh)
	}

	delete(s.Effects, fxh)
	e.removed = append(e.removed, fxh)
	return nil
}

// End finishes stream h the way a drained source would, calling its end
// callback on the current goroutine. It reports whether h was open.
func (e *Engine) End(h engine.StreamHandle, err error) bool {
	e.mu.Lock()
	s, ok := e.streams[h]
	if ok {
		delete(e.streams, h)
	}
	e.mu.Unlock()

	if !ok {
		return false
	}
	if s.onEnd != nil {
		s.onEnd(err)
	}
	return true
}

// Stream returns a copy of the recorded state of h.
func (e *Engine) Stream(h engine.StreamHandle) (Stream, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.streams[h]
	if !ok {
		return Stream{}, false
	}

	cp := *s
	cp.Attrs = make(map[engine.Attribute]float64, len(s.Attrs))
	for k, v := range s.Attrs {
		cp.Attrs[k] = v
	}
	cp.Effects = make(map[fx.Handle]fx.Type, len(s.Effects))
	for k, v := range s.Effects {
		cp.Effects[k] = v
	}
	return cp, true
}

// Settings returns every Configure call in order.
func (e *Engine) Settings() []Setting {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Setting(nil), e.settings...)
}

// Inits counts EnsureInitialized calls.
func (e *Engine) Inits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inits
}

// Removed lists effect handles released through RemoveEffect.
func (e *Engine) Removed() []fx.Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]fx.Handle(nil), e.removed...)
}

// Open counts open streams.
func (e *Engine) Open() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.streams)
}

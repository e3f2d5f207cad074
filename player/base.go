// SPDX-License-Identifier: EPL-2.0

package player

import (
	"errors"
	"fmt"

	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/fx"
	"github.com/ik5/audfx/playback"
)

// base is what both players share: the Core state and the engine calls
// behind every transition.
type base struct {
	*playback.Core
	eng engine.Engine
}

func newBase(eng engine.Engine) (base, error) {
	core, err := playback.NewCore(eng)
	if err != nil {
		return base{}, err
	}
	return base{Core: core, eng: eng}, nil
}

// start opens src on the engine and starts it. src is closed when it could
// not be started.
func (b *base) start(src audio.Source) error {
	if err := b.eng.EnsureInitialized(); err != nil {
		_ = src.Close()
		return err
	}

	opened := false
	err := b.Begin(func(a playback.Attributes) (engine.StreamHandle, error) {
		var h engine.StreamHandle
		h, err := b.eng.OpenStream(src, func(err error) { b.Finish(h, err) })
		if err != nil {
			return engine.NoStream, err
		}
		opened = true

		if err := playback.PushAttributes(a, h, b.eng.SetAttribute); err != nil {
			_ = b.eng.CloseStream(h)
			return engine.NoStream, err
		}
		if err := b.eng.StartStream(h); err != nil {
			_ = b.eng.CloseStream(h)
			return engine.NoStream, err
		}
		return h, nil
	})
	if err != nil && !opened {
		_ = src.Close()
	}
	return err
}

// admit applies the Play policy shared by both players. It reports whether
// Play is already handled: rejected while Playing, or resumed when Paused
// and source is nil.
func (b *base) admit(source any) (bool, error) {
	switch b.State() {
	case playback.Playing:
		return true, fmt.Errorf("%w: already playing", playback.ErrInvalidOperation)
	case playback.Paused:
		if source == nil {
			return true, b.Resume()
		}
	}
	return false, nil
}

// restart starts src, stopping a paused stream first. The paused stream is
// only released once src is ready, so a Play that fails earlier leaves it
// untouched. src is closed when the old stream cannot be released.
func (b *base) restart(src audio.Source) error {
	if b.State() == playback.Paused {
		if err := b.Stop(); err != nil && !errors.Is(err, playback.ErrInvalidOperation) {
			_ = src.Close()
			return err
		}
	}
	return b.start(src)
}

// Stop releases every effect instance and the stream. Ended listeners are
// not notified.
func (b *base) Stop() error {
	return b.End(b.release)
}

func (b *base) release(h engine.StreamHandle, handlers *fx.Registry) error {
	var errs []error

	for _, t := range handlers.Attached() {
		err := b.eng.RemoveEffect(h, handlers.Get(t))
		if err != nil && !errors.Is(err, engine.ErrUnknownEffect) && !errors.Is(err, engine.ErrUnknownStream) {
			errs = append(errs, fmt.Errorf("removing %v: %w", t, err))
		}
	}
	handlers.Reset()

	// the stream may have run out in the meantime
	if err := b.eng.CloseStream(h); err != nil && !errors.Is(err, engine.ErrUnknownStream) {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (b *base) Pause() error {
	return b.Suspend(b.eng.PauseStream)
}

func (b *base) Resume() error {
	return b.Continue(b.eng.ResumeStream)
}

// AddEffect attaches a new instance of t to the playing stream. An instance
// of t that is already attached is released first.
func (b *base) AddEffect(t fx.Type, priority int) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %v", fx.ErrInvalidArgument, t)
	}

	return b.WithStream(func(h engine.StreamHandle, handlers *fx.Registry) error {
		if old := handlers.Get(t); old != fx.None {
			if err := b.eng.RemoveEffect(h, old); err != nil && !errors.Is(err, engine.ErrUnknownEffect) {
				return fmt.Errorf("replacing %v: %w", t, err)
			}
			_ = handlers.Set(t, fx.None)
		}

		fxh, err := b.eng.CreateEffect(h, t, priority)
		if err != nil {
			return err
		}
		return handlers.Set(t, fxh)
	})
}

// RemoveEffect releases the instance of t attached to the playing stream.
func (b *base) RemoveEffect(t fx.Type) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %v", fx.ErrInvalidArgument, t)
	}

	return b.WithStream(func(h engine.StreamHandle, handlers *fx.Registry) error {
		fxh := handlers.Get(t)
		if fxh == fx.None {
			return fmt.Errorf("%w: %v is not attached", engine.ErrUnknownEffect, t)
		}
		if err := b.eng.RemoveEffect(h, fxh); err != nil {
			return err
		}
		return handlers.Set(t, fx.None)
	})
}

// SetVolume sets the volume in [0, 1].
func (b *base) SetVolume(v float64) error {
	return b.SetAttribute(engine.AttrVolume, v, b.eng.SetAttribute)
}

// SetPanning sets the balance in [-1, 1], -1 being full left.
func (b *base) SetPanning(v float64) error {
	return b.SetAttribute(engine.AttrPanning, v, b.eng.SetAttribute)
}

// SetSpeed sets the tempo factor in [0.1, 4]. Pitch is applied on top as
// varispeed, and the engine limits the combined rate to the same range: at
// speed 4 a positive pitch has no further effect, although Attributes still
// reports both values.
func (b *base) SetSpeed(v float64) error {
	return b.SetAttribute(engine.AttrSpeed, v, b.eng.SetAttribute)
}

// SetPitch sets the pitch shift in semitones, [-12, 12]. It changes the
// playback rate by 2^(v/12) on top of the speed, within the limits given
// for SetSpeed.
func (b *base) SetPitch(v float64) error {
	return b.SetAttribute(engine.AttrPitch, v, b.eng.SetAttribute)
}

// Close stops playback if needed.
func (b *base) Close() error {
	if b.State() == playback.Stopped {
		return nil
	}
	return b.Stop()
}

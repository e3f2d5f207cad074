// SPDX-License-Identifier: EPL-2.0

package beepengine

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/engine"
)

// sourceStreamer reads a stereo audio.Source in chunks and hands it to beep.
type sourceStreamer struct {
	src   audio.Source
	chunk []float32
	pos   int
	n     int
	done  bool
	err   error
}

func newSourceStreamer(src audio.Source, frames int) *sourceStreamer {
	return &sourceStreamer{
		src:   src,
		chunk: make([]float32, max(frames, 1)*2),
	}
}

func (s *sourceStreamer) fill() {
	n, err := s.src.ReadSamples(s.chunk)
	s.pos, s.n = 0, n-n%2
	if err == nil {
		return
	}
	s.done = true
	if !errors.Is(err, io.EOF) {
		s.err = err
	}
}

func (s *sourceStreamer) Stream(samples [][2]float64) (int, bool) {
	i := 0
	for i < len(samples) {
		if s.pos >= s.n {
			if s.done {
				break
			}
			s.fill()
			if s.n == 0 && !s.done {
				break
			}
			continue
		}
		samples[i][0] = float64(s.chunk[s.pos])
		samples[i][1] = float64(s.chunk[s.pos+1])
		s.pos += 2
		i++
	}
	return i, i > 0 || !s.done
}

func (s *sourceStreamer) Err() error { return s.err }

// voice is the streamer graph of one stream. Every field below src is only
// touched with the sink locked.
type voice struct {
	handle engine.StreamHandle
	src    audio.Source
	onEnd  func(error)

	rs    *audio.Resampler
	in    *sourceStreamer
	chain *chain
	pan   *effects.Pan
	vol   *effects.Volume
	ctrl  *beep.Ctrl

	speed   float64
	pitch   float64
	started bool
	closed  bool
	ended   bool
}

// conform turns src into stereo at rate behind a resampler that speed and
// pitch act on.
func conform(src audio.Source, rate int) (*audio.Resampler, audio.Source) {
	if src.Channels() > 2 {
		src = audio.NewDownmixer(src)
	}
	rs := audio.NewResampler(src, rate)
	if rs.Channels() == 1 {
		return rs, audio.NewUpmixer(rs, 2)
	}
	return rs, rs
}

func (e *Engine) newVoice(h engine.StreamHandle, src audio.Source, onEnd func(error)) *voice {
	rs, stereo := conform(src, int(e.rate))

	v := &voice{
		handle: h,
		src:    src,
		onEnd:  onEnd,
		rs:     rs,
		in:     newSourceStreamer(stereo, e.frames(engine.PlaybackBufferLength)),
		speed:  1,
	}
	v.chain = &chain{src: v.in}
	v.pan = &effects.Pan{Streamer: v.chain}
	v.vol = &effects.Volume{Streamer: v.pan, Base: 2}
	v.ctrl = &beep.Ctrl{Streamer: v.vol, Paused: true}
	return v
}

func (v *voice) setVolume(vol float64) {
	if vol <= 0 {
		v.vol.Volume, v.vol.Silent = 0, true
		return
	}
	v.vol.Volume, v.vol.Silent = math.Log2(vol), false
}

// retune applies speed and pitch together. Pitch is varispeed: it changes
// the tempo as well. The combined rate is clamped by the resampler to
// [0.1, 4].
func (v *voice) retune() {
	v.rs.SetSpeed(v.speed * math.Pow(2, v.pitch/12))
}

// kill cuts the voice out of the mix without reporting an end.
func (v *voice) kill() {
	v.closed = true
	v.ctrl.Streamer = nil
}

// OpenStream builds a voice for src. It stays silent until StartStream.
// The engine owns src from here on and closes it with the stream.
func (e *Engine) OpenStream(src audio.Source, onEnd func(error)) (engine.StreamHandle, error) {
	if src == nil {
		return engine.NoStream, errors.New("beepengine: nil source")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return engine.NoStream, engine.ErrEngineUnavailable
	}

	e.lastStream++
	h := e.lastStream
	e.streams[h] = e.newVoice(h, src, onEnd)
	e.logger.Printf("beepengine: stream %d open, %d Hz %d ch", h, src.SampleRate(), src.Channels())
	return h, nil
}

// withVoice runs fn on stream h with both the engine and the sink locked.
func (e *Engine) withVoice(h engine.StreamHandle, fn func(v *voice) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.streams[h]
	if !ok {
		return fmt.Errorf("%w: %d", engine.ErrUnknownStream, h)
	}

	e.sink.Lock()
	defer e.sink.Unlock()
	return fn(v)
}

func (e *Engine) StartStream(h engine.StreamHandle) error {
	return e.withVoice(h, func(v *voice) error {
		if !v.started {
			v.started = true
			e.mixer.Add(beep.Seq(v.ctrl, beep.Callback(func() { e.ended(v) })))
		}
		v.ctrl.Paused = false
		return nil
	})
}

func (e *Engine) PauseStream(h engine.StreamHandle) error {
	return e.withVoice(h, func(v *voice) error {
		v.ctrl.Paused = true
		return nil
	})
}

func (e *Engine) ResumeStream(h engine.StreamHandle) error {
	return e.withVoice(h, func(v *voice) error {
		v.ctrl.Paused = false
		return nil
	})
}

// CloseStream releases h and its effects. onEnd is not called, even if the
// source had just run out.
func (e *Engine) CloseStream(h engine.StreamHandle) error {
	e.mu.Lock()
	v, ok := e.streams[h]
	if ok {
		delete(e.streams, h)
		e.sink.Lock()
		v.kill()
		e.sink.Unlock()
	}
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", engine.ErrUnknownStream, h)
	}
	e.logger.Printf("beepengine: stream %d closed", h)
	return v.src.Close()
}

func (e *Engine) SetAttribute(h engine.StreamHandle, a engine.Attribute, val float64) error {
	return e.withVoice(h, func(v *voice) error {
		switch a {
		case engine.AttrVolume:
			v.setVolume(val)
		case engine.AttrPanning:
			v.pan.Pan = min(max(val, -1), 1)
		case engine.AttrSpeed:
			v.speed = val
			v.retune()
		case engine.AttrPitch:
			v.pitch = val
			v.retune()
		default:
			return fmt.Errorf("beepengine: unknown attribute %d", a)
		}
		return nil
	})
}

// ended runs on the sink goroutine once the voice's Ctrl stops. Only a
// voice that ran dry on its own is reported.
func (e *Engine) ended(v *voice) {
	if v.closed || v.ended {
		return
	}
	v.ended = true
	go e.finish(v, v.in.Err())
}

func (e *Engine) finish(v *voice, err error) {
	e.mu.Lock()
	cur, ok := e.streams[v.handle]
	if !ok || cur != v {
		e.mu.Unlock()
		return
	}
	delete(e.streams, v.handle)
	e.mu.Unlock()

	if cerr := v.src.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		e.logger.Printf("beepengine: stream %d ended: %v", v.handle, err)
	}
	if v.onEnd != nil {
		v.onEnd(err)
	}
}

// Playing counts started streams that have not run out or been closed.
func (e *Engine) Playing() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sink.Lock()
	defer e.sink.Unlock()

	n := 0
	for _, v := range e.streams {
		if v.started && !v.ended && !v.closed {
			n++
		}
	}
	return n
}

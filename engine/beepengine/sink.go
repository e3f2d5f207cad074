// SPDX-License-Identifier: EPL-2.0

package beepengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/ik5/audfx/utils"
)

// Buffers are the sink sizes derived from the engine configuration, in
// frames.
type Buffers struct {
	Device int
	Update int
}

// Sink plays the engine mix. Lock and Unlock guard every change to the
// streamer graph against the goroutine that pulls it.
type Sink interface {
	Open(sr beep.SampleRate, b Buffers, s beep.Streamer) error
	Resize(b Buffers) error
	Lock()
	Unlock()
	Close() error
}

// Speaker plays through the default output device.
type Speaker struct {
	sr beep.SampleRate
	s  beep.Streamer
}

func (sp *Speaker) Open(sr beep.SampleRate, b Buffers, s beep.Streamer) error {
	if err := speaker.Init(sr, b.Device); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	sp.sr, sp.s = sr, s
	speaker.Play(s)
	return nil
}

// Resize reopens the device with the new buffer size.
func (sp *Speaker) Resize(b Buffers) error {
	if sp.s == nil {
		return errors.New("speaker not open")
	}
	return sp.Open(sp.sr, b, sp.s)
}

func (sp *Speaker) Lock()   { speaker.Lock() }
func (sp *Speaker) Unlock() { speaker.Unlock() }

func (sp *Speaker) Close() error {
	speaker.Clear()
	sp.s = nil
	return nil
}

// Render is a pull based sink. Nothing plays until Advance is called; the
// pulled audio is written as 16-bit stereo WAV when an output was given, and
// discarded otherwise.
type Render struct {
	out io.WriteSeeker

	mu     sync.Mutex
	sr     beep.SampleRate
	s      beep.Streamer
	step   int
	enc    *wav.Encoder
	block  [][2]float64
	ints   *goaudio.IntBuffer
	frames int64
}

// NewRender returns a Render writing to out, which may be nil.
func NewRender(out io.WriteSeeker) *Render {
	return &Render{out: out}
}

func (r *Render) Open(sr beep.SampleRate, b Buffers, s beep.Streamer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.s != nil {
		return errors.New("render sink already open")
	}

	r.sr, r.s = sr, s
	r.resize(b)
	if r.out != nil {
		r.enc = wav.NewEncoder(r.out, int(sr), 16, 2, 1)
	}
	return nil
}

func (r *Render) Resize(b Buffers) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resize(b)
	return nil
}

func (r *Render) resize(b Buffers) {
	r.step = max(b.Update, 1)
	r.block = make([][2]float64, r.step)
	r.ints = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: int(r.sr)},
		Data:           make([]int, r.step*2),
		SourceBitDepth: 16,
	}
}

func (r *Render) Lock()   { r.mu.Lock() }
func (r *Render) Unlock() { r.mu.Unlock() }

// Advance pulls d worth of audio from the mix in update period steps.
func (r *Render) Advance(d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.s == nil {
		return errors.New("render sink not open")
	}

	for left := r.sr.N(d); left > 0; {
		n := min(left, r.step)
		block := r.block[:n]
		clear(block)

		got, _ := r.s.Stream(block)
		clear(block[got:])
		left -= n
		r.frames += int64(n)

		if r.enc == nil {
			continue
		}
		data := r.ints.Data[:n*2]
		for i, fr := range block {
			data[i*2] = utils.ToPCM(fr[0], 16)
			data[i*2+1] = utils.ToPCM(fr[1], 16)
		}
		r.ints.Data = data
		if err := r.enc.Write(r.ints); err != nil {
			return fmt.Errorf("render write: %w", err)
		}
		r.ints.Data = r.ints.Data[:cap(r.ints.Data)]
	}
	return nil
}

// Run advances in real time, one update period per tick, until ctx is done.
// It turns Render into a silent device.
func (r *Render) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.s == nil {
		r.mu.Unlock()
		return errors.New("render sink not open")
	}
	period := r.sr.D(r.step)
	r.mu.Unlock()

	tick := time.NewTicker(period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if err := r.Advance(period); err != nil {
				return err
			}
		}
	}
}

// Frames counts the frames pulled so far.
func (r *Render) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close finishes the WAV header. The output itself is left open.
func (r *Render) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.s = nil
	if r.enc == nil {
		return nil
	}
	err := r.enc.Close()
	r.enc = nil
	return err
}

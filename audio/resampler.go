// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/audfx/utils"
)

const (
	minSpeed = 0.1
	maxSpeed = 4.0

	// maxEmptyReads bounds consecutive (0, nil) reads before the source is
	// treated as stuck.
	maxEmptyReads = 100
)

// Resampler streams from src to a target sample rate using cubic
// interpolation. It works on interleaved samples and keeps the channel count.
//
// The playback speed can be changed between reads with SetSpeed; a speed of
// 2 consumes the source twice as fast at the same output rate, which also
// raises the pitch by an octave.
type Resampler struct {
	src      Source
	channels int
	dstRate  int
	base     float64 // source frames per output frame at speed 1
	step     float64 // base * speed

	// hist[1] and hist[2] bracket the output position, hist[0] and hist[3]
	// are the outer neighbours used by the cubic kernel.
	hist [4][]float32
	real [4]bool
	pos  float64

	in      []float32
	inPos   int
	inLen   int
	srcDone bool
	srcErr  error
	primed  bool

	// one-pole low-pass against aliasing when step > 1
	lp      []float32
	lpReady bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	base := float64(src.SampleRate()) / float64(dstRate)

	bufFrames := max(src.BufSize()/max(channels, 1), 64)

	r := &Resampler{
		src:      src,
		channels: channels,
		dstRate:  dstRate,
		base:     base,
		step:     base,
		in:       make([]float32, bufFrames*channels),
		lp:       make([]float32, channels),
	}
	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// SetSpeed changes the playback speed factor, clamped to [0.1, 4].
func (r *Resampler) SetSpeed(speed float64) {
	r.step = r.base * min(max(speed, minSpeed), maxSpeed)
}

// Speed returns the current speed factor.
func (r *Resampler) Speed() float64 {
	return r.step / r.base
}

// nextFrame copies one source frame into dst. It returns false once the
// source is exhausted.
func (r *Resampler) nextFrame(dst []float32) bool {
	if r.inPos >= r.inLen {
		if r.srcDone {
			return false
		}

		r.inPos, r.inLen = 0, 0
		for empty := 0; r.inLen == 0; empty++ {
			if empty == maxEmptyReads {
				r.srcDone = true
				r.srcErr = fmt.Errorf("%w", io.ErrNoProgress)
				return false
			}

			n, err := r.src.ReadSamples(r.in)
			r.inLen = n - n%r.channels
			if err == io.EOF {
				r.srcDone = true
			} else if err != nil {
				r.srcDone = true
				r.srcErr = fmt.Errorf("%w", err)
			}
			if r.srcDone && r.inLen == 0 {
				return false
			}
		}
	}

	copy(dst, r.in[r.inPos:r.inPos+r.channels])
	r.inPos += r.channels

	if r.step > 1 {
		// Cutoff follows the step so higher speeds filter harder.
		alpha := float32(1 / r.step)
		if !r.lpReady {
			copy(r.lp, dst)
			r.lpReady = true
		}
		for c := range dst {
			r.lp[c] += alpha * (dst[c] - r.lp[c])
			dst[c] = r.lp[c]
		}
	}

	return true
}

// shift drops hist[0] and pulls a new frame into hist[3]. At the end of the
// source the last real frame is repeated and marked as not real.
func (r *Resampler) shift() {
	first := r.hist[0]
	copy(r.hist[:], r.hist[1:])
	copy(r.real[:], r.real[1:])
	r.hist[3] = first

	if r.nextFrame(r.hist[3]) {
		r.real[3] = true
		return
	}
	copy(r.hist[3], r.hist[2])
	r.real[3] = false
}

func (r *Resampler) prime() {
	r.primed = true

	if !r.nextFrame(r.hist[1]) {
		return
	}
	copy(r.hist[0], r.hist[1])
	r.real[0], r.real[1] = true, true

	for i := 2; i < 4; i++ {
		if r.nextFrame(r.hist[i]) {
			r.real[i] = true
			continue
		}
		copy(r.hist[i], r.hist[i-1])
	}
}

// ReadSamples produces resampled frames into dst, whose length must be a
// multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		r.prime()
	}

	frames := len(dst) / r.channels
	written := 0

	for written < frames {
		for r.pos >= 1.0 && r.real[1] {
			r.pos -= 1.0
			r.shift()
		}

		if !r.real[1] {
			if r.srcErr != nil {
				return written * r.channels, r.srcErr
			}
			return written * r.channels, io.EOF
		}

		x := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.hist[0][c], r.hist[1][c], r.hist[2][c], r.hist[3][c], x)
		}

		written++
		r.pos += r.step
	}

	return written * r.channels, nil
}

// SPDX-License-Identifier: EPL-2.0

package beepengine

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// lfo is a sine oscillator in [-1, 1].
type lfo struct {
	phase float64
	inc   float64
}

func newLFO(rate, hz float64) lfo {
	return lfo{inc: hz / rate}
}

func (o *lfo) next() float64 {
	v := math.Sin(2 * math.Pi * o.phase)
	o.phase += o.inc
	o.phase -= math.Floor(o.phase)
	return v
}

// skip advances the oscillator by n samples.
func (o *lfo) skip(n int) {
	o.phase += o.inc * float64(n)
	o.phase -= math.Floor(o.phase)
}

// delayLine is a circular buffer read with linear interpolation.
type delayLine struct {
	buf []float64
	pos int
}

func newDelayLine(size int) *delayLine {
	return &delayLine{buf: make([]float64, max(size, 2))}
}

func (d *delayLine) write(v float64) {
	d.buf[d.pos] = v
	d.pos++
	if d.pos == len(d.buf) {
		d.pos = 0
	}
}

// read returns the sample written delay samples ago; delay must be below the
// line length.
func (d *delayLine) read(delay float64) float64 {
	p := float64(d.pos) - delay
	for p < 0 {
		p += float64(len(d.buf))
	}
	i := int(p)
	frac := p - float64(i)
	a := d.buf[i%len(d.buf)]
	b := d.buf[(i+1)%len(d.buf)]
	return a + (b-a)*frac
}

// echo is a feedback delay.
type echo struct {
	lines    [2]*delayLine
	delay    float64
	feedback float64
	mix      float64
}

func newEcho(rate float64, d time.Duration, feedback, mix float64) *echo {
	n := d.Seconds() * rate
	return &echo{
		lines:    [2]*delayLine{newDelayLine(int(n) + 2), newDelayLine(int(n) + 2)},
		delay:    n,
		feedback: feedback,
		mix:      mix,
	}
}

func (e *echo) Process(samples [][2]float64) {
	for i := range samples {
		for c := range 2 {
			dry := samples[i][c]
			wet := e.lines[c].read(e.delay)
			e.lines[c].write(dry + wet*e.feedback)
			samples[i][c] = dry + wet*e.mix
		}
	}
}

type modParams struct {
	base     float64 // ms
	depth    float64 // ms
	hz       float64
	feedback float64
	mix      float64
}

// modDelay is a delay swept by an LFO: chorus, flanger or phaser depending
// on the parameters. The right channel runs a quarter cycle behind.
type modDelay struct {
	p     modParams
	rate  float64
	lines [2]*delayLine
	lfos  [2]lfo
}

func newModDelay(rate float64, p modParams) *modDelay {
	size := int((p.base+p.depth)*rate/1000) + 4
	m := &modDelay{
		p:     p,
		rate:  rate,
		lines: [2]*delayLine{newDelayLine(size), newDelayLine(size)},
		lfos:  [2]lfo{newLFO(rate, p.hz), newLFO(rate, p.hz)},
	}
	m.lfos[1].phase = 0.25
	return m
}

func (m *modDelay) Process(samples [][2]float64) {
	for i := range samples {
		for c := range 2 {
			ms := m.p.base + m.p.depth*(0.5+0.5*m.lfos[c].next())
			wet := m.lines[c].read(ms * m.rate / 1000)
			dry := samples[i][c]
			m.lines[c].write(dry + wet*m.p.feedback)
			samples[i][c] = dry*(1-m.p.mix) + wet*m.p.mix
		}
	}
}

// softClip drives the signal into tanh.
type softClip struct {
	drive float64
}

func (s *softClip) Process(samples [][2]float64) {
	norm := math.Tanh(s.drive)
	for i := range samples {
		samples[i][0] = math.Tanh(samples[i][0]*s.drive) / norm
		samples[i][1] = math.Tanh(samples[i][1]*s.drive) / norm
	}
}

// gargle is amplitude modulation.
type gargle struct {
	osc lfo
}

func newGargle(rate, hz float64) *gargle {
	return &gargle{osc: newLFO(rate, hz)}
}

func (g *gargle) Process(samples [][2]float64) {
	for i := range samples {
		gain := 0.5 + 0.5*g.osc.next()
		samples[i][0] *= gain
		samples[i][1] *= gain
	}
}

type compParams struct {
	threshold float64 // dB
	ratio     float64
	attack    float64 // ms
	release   float64 // ms
	makeup    float64 // dB
}

// compressor follows the stereo peak and reduces gain above threshold.
type compressor struct {
	p       compParams
	attack  float64
	release float64
	makeup  float64
	env     float64
}

func newCompressor(rate float64, p compParams) *compressor {
	coef := func(ms float64) float64 {
		return math.Exp(-1 / (ms / 1000 * rate))
	}
	return &compressor{
		p:       p,
		attack:  coef(p.attack),
		release: coef(p.release),
		makeup:  math.Pow(10, p.makeup/20),
	}
}

func (c *compressor) Process(samples [][2]float64) {
	for i := range samples {
		peak := max(math.Abs(samples[i][0]), math.Abs(samples[i][1]))
		k := c.release
		if peak > c.env {
			k = c.attack
		}
		c.env = k*c.env + (1-k)*peak

		gain := c.makeup
		if c.env > 0 {
			if db := 20 * math.Log10(c.env); db > c.p.threshold {
				over := db - c.p.threshold
				gain *= math.Pow(10, -(over-over/c.p.ratio)/20)
			}
		}
		samples[i][0] *= gain
		samples[i][1] *= gain
	}
}

// freeverb tuning at 44.1 kHz.
var (
	combTuning    = [...]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTuning = [...]int{556, 441, 341, 225}
)

const (
	stereoSpread = 23
	reverbGain   = 0.015
	reverbRoom   = 0.84
	reverbDamp   = 0.2
	reverbWet    = 1.0 / 3.0
)

type comb struct {
	buf   []float64
	pos   int
	store float64
}

func (c *comb) process(in float64) float64 {
	out := c.buf[c.pos]
	c.store = out*(1-reverbDamp) + c.store*reverbDamp
	c.buf[c.pos] = in + c.store*reverbRoom
	c.pos = (c.pos + 1) % len(c.buf)
	return out
}

type allpass struct {
	buf []float64
	pos int
}

func (a *allpass) process(in float64) float64 {
	delayed := a.buf[a.pos]
	a.buf[a.pos] = in + delayed*0.5
	a.pos = (a.pos + 1) % len(a.buf)
	return delayed - in
}

// freeverb is the Jezar comb/allpass reverb.
type freeverb struct {
	combs     [2][len(combTuning)]comb
	allpasses [2][len(allpassTuning)]allpass
}

func newFreeverb(rate float64) *freeverb {
	scale := rate / 44100
	f := &freeverb{}
	for c := range 2 {
		spread := c * stereoSpread
		for i, n := range combTuning {
			f.combs[c][i].buf = make([]float64, max(int(float64(n+spread)*scale), 1))
		}
		for i, n := range allpassTuning {
			f.allpasses[c][i].buf = make([]float64, max(int(float64(n+spread)*scale), 1))
		}
	}
	return f
}

func (f *freeverb) Process(samples [][2]float64) {
	for i := range samples {
		in := (samples[i][0] + samples[i][1]) * reverbGain
		for c := range 2 {
			var out float64
			for j := range f.combs[c] {
				out += f.combs[c][j].process(in)
			}
			for j := range f.allpasses[c] {
				out = f.allpasses[c][j].process(out)
			}
			samples[i][c] += out * reverbWet
		}
	}
}

// fadeIn ramps the gain from 0 to 1.
type fadeIn struct {
	pos, total int
}

func newFadeIn(rate float64, d time.Duration) *fadeIn {
	return &fadeIn{total: max(int(d.Seconds()*rate), 1)}
}

func (f *fadeIn) Process(samples [][2]float64) {
	for i := range samples {
		if f.pos >= f.total {
			return
		}
		g := float64(f.pos) / float64(f.total)
		samples[i][0] *= g
		samples[i][1] *= g
		f.pos++
	}
}

// rotate sweeps effects.Pan from side to side.
type rotate struct {
	pan *effects.Pan
	w   *wrapped
	osc lfo
}

const rotateBlock = 64

func newRotate(rate, hz float64) *rotate {
	r := &rotate{osc: newLFO(rate, hz)}
	r.w = wrap(func(s beep.Streamer) beep.Streamer {
		r.pan = &effects.Pan{Streamer: s}
		return r.pan
	})
	return r
}

func (r *rotate) Process(samples [][2]float64) {
	for len(samples) > 0 {
		n := min(len(samples), rotateBlock)
		r.pan.Pan = r.osc.next()
		r.osc.skip(n - 1)
		r.w.Process(samples[:n])
		samples = samples[n:]
	}
}

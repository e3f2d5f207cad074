// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Mixer sums any number of sources into one. Sources are conformed to the
// mixer's rate and channel count when they are added, and dropped (and
// closed) once they report io.EOF.
//
// A Mixer keeps producing silence while it is empty unless it was created
// with NewMixer(..., true) in which case it ends as soon as the last source
// ends. Add is safe to call while another goroutine reads.
type Mixer struct {
	rate       int
	channels   int
	endOnEmpty bool

	mu      sync.Mutex
	sources []Source
	scratch []float32
	closed  bool
	errs    []error
}

func NewMixer(rate, channels int, endOnEmpty bool) *Mixer {
	return &Mixer{
		rate:       rate,
		channels:   channels,
		endOnEmpty: endOnEmpty,
		scratch:    make([]float32, 4096),
	}
}

func (m *Mixer) SampleRate() int { return m.rate }
func (m *Mixer) Channels() int   { return m.channels }
func (m *Mixer) BufSize() int    { return 4096 }

// Add starts mixing src from its current position.
func (m *Mixer) Add(src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("mixer: %w", io.ErrClosedPipe)
	}
	m.sources = append(m.sources, Conform(src, m.rate, m.channels))
	return nil
}

// Len reports how many sources are still being mixed.
func (m *Mixer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sources)
}

func (m *Mixer) ReadSamples(dst []float32) (int, error) {
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.endOnEmpty && len(m.sources) == 0 {
		return 0, io.EOF
	}

	clear(dst)
	if cap(m.scratch) < len(dst) {
		m.scratch = make([]float32, len(dst))
	}
	buf := m.scratch[:len(dst)]

	longest := 0
	live := m.sources[:0]
	for _, src := range m.sources {
		filled, err := readFull(src, buf)
		for i, v := range buf[:filled] {
			dst[i] += v
		}
		longest = max(longest, filled)

		if err == nil {
			live = append(live, src)
			continue
		}
		if !errors.Is(err, io.EOF) {
			m.errs = append(m.errs, err)
		}
		if cerr := src.Close(); cerr != nil {
			m.errs = append(m.errs, cerr)
		}
	}
	clear(m.sources[len(live):])
	m.sources = live

	if len(m.sources) > 0 || !m.endOnEmpty {
		return len(dst), nil
	}
	if longest == 0 {
		return 0, io.EOF
	}
	return longest, io.EOF
}

// readFull reads from src until buf is full or src stops.
func readFull(src Source, buf []float32) (int, error) {
	filled := 0
	for filled < len(buf) {
		n, err := src.ReadSamples(buf[filled:])
		filled += n
		if err != nil {
			return filled, err
		}
		if n == 0 {
			break
		}
	}
	return filled, nil
}

// Close closes every remaining source and returns the collected errors.
func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	errs := m.errs
	for _, src := range m.sources {
		if err := src.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.sources = nil
	m.errs = nil

	return errors.Join(errs...)
}

// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III through github.com/hajimehoshi/go-mp3.
// Output is always 16-bit stereo, whatever the file's channel layout.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/formats/internal/pcm"
	"github.com/ik5/audfx/utils"
)

const channels = 2

// mp3Reader is the part of gomp3.Decoder used by the source.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec   mp3Reader
	input io.Reader
	buf   []byte
	// carry holds a trailing odd byte between reads
	carry []byte
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return pcm.CloseInput(s.input) }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	want := (len(dst) - len(dst)%channels) * 2
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}
	s.buf = s.buf[:want]

	have := copy(s.buf, s.carry)
	s.carry = s.carry[:0]

	n, err := s.dec.Read(s.buf[have:])
	n += have

	whole := n - n%2
	s.carry = append(s.carry, s.buf[whole:n]...)

	samples := whole / 2
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
		dst[i] = utils.FromPCM(int(v), 16)
	}

	if err != nil && err != io.EOF {
		return samples, fmt.Errorf("%w", err)
	}
	return samples, err
}

type Decoder struct{}

// Decode parses the first MP3 frame of r. If r is an io.Closer the returned
// source closes it.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec, r), nil
}

func newSource(dec mp3Reader, input io.Reader) *source {
	return &source{
		dec:   dec,
		input: input,
		buf:   make([]byte, 8192),
	}
}

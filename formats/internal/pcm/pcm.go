// SPDX-License-Identifier: EPL-2.0

// Package pcm holds the pieces shared by the go-audio based decoders.
package pcm

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/ik5/audfx/utils"
)

// CloseInput closes r when the decoder was handed something closable, such
// as an *os.File. Decoded sources own their input.
func CloseInput(r io.Reader) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ReadSeeker returns r itself when it can seek, otherwise it buffers the
// whole stream in memory. go-audio decoders need to seek.
func ReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering input: %w", err)
	}
	return bytes.NewReader(data), nil
}

// IntReader is the part of go-audio's wav and aiff decoders used here.
type IntReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// IntSource adapts a go-audio integer PCM decoder to audio.Source.
type IntSource struct {
	dec      IntReader
	input    io.Reader
	rate     int
	channels int
	bitDepth int
	buf      *goaudio.IntBuffer
	done     bool
}

func NewIntSource(dec IntReader, input io.Reader, rate, channels, bitDepth int) *IntSource {
	return &IntSource{
		dec:      dec,
		input:    input,
		rate:     rate,
		channels: channels,
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
			Data:           make([]int, 4096),
			SourceBitDepth: bitDepth,
		},
	}
}

func (s *IntSource) SampleRate() int { return s.rate }
func (s *IntSource) Channels() int   { return s.channels }
func (s *IntSource) BufSize() int    { return cap(s.buf.Data) }
func (s *IntSource) Close() error    { return CloseInput(s.input) }

func (s *IntSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.done {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.channels
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading pcm: %w", err)
	}
	if n == 0 || err == io.EOF {
		s.done = true
	}

	for i, v := range s.buf.Data[:n] {
		dst[i] = utils.FromPCM(v, s.bitDepth)
	}

	if s.done {
		return n, io.EOF
	}
	return n, nil
}

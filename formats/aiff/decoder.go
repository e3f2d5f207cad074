// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF through github.com/go-audio/aiff.
package aiff

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/formats/internal/pcm"
)

type Decoder struct{}

// Decode reads the AIFF headers from r. r is buffered in memory unless it is
// an io.ReadSeeker; if it is an io.Closer the returned source closes it.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := pcm.ReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	format := dec.Format()
	if format == nil || format.NumChannels < 1 {
		return nil, ErrUnsupportedAiffLayout
	}

	return pcm.NewIntSource(dec, r, format.SampleRate, format.NumChannels, int(dec.BitDepth)), nil
}

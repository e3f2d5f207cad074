// SPDX-License-Identifier: EPL-2.0

package player

import (
	"fmt"
	"io"

	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/formats"
	"github.com/ik5/audfx/playback"
)

// Reader is a Play source read from R and decoded as Format ("wav", "mp3"
// and so on).
type Reader struct {
	R      io.Reader
	Format string
}

// FilePlayer plays one source at a time.
type FilePlayer struct {
	base
	formats  *audio.Registry
	lastPath string
}

var _ playback.Controller = (*FilePlayer)(nil)

type FileOption func(*FilePlayer)

// WithFormats sets the decoders used for paths and Readers. The default is
// formats.Default().
func WithFormats(reg *audio.Registry) FileOption {
	return func(p *FilePlayer) {
		if reg != nil {
			p.formats = reg
		}
	}
}

// NewFilePlayer fails with engine.ErrEngineUnavailable when eng cannot be
// initialized.
func NewFilePlayer(eng engine.Engine, opts ...FileOption) (*FilePlayer, error) {
	b, err := newBase(eng)
	if err != nil {
		return nil, err
	}

	p := &FilePlayer{base: b, formats: formats.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Play starts source, which is a file path, an audio.Source or a Reader.
// With a nil source it resumes a paused player, or replays the last path
// when stopped.
func (p *FilePlayer) Play(source any) error {
	if handled, err := p.admit(source); handled {
		return err
	}

	if source == nil {
		if p.lastPath == "" {
			return ErrNoSource
		}
		source = p.lastPath
	}

	src, err := p.open(source)
	if err != nil {
		return err
	}
	return p.restart(src)
}

func (p *FilePlayer) open(source any) (audio.Source, error) {
	switch s := source.(type) {
	case string:
		src, err := formats.OpenWith(p.formats, s)
		if err != nil {
			return nil, err
		}
		p.lastPath = s
		return src, nil
	case audio.Source:
		return s, nil
	case Reader:
		if s.R == nil {
			return nil, ErrNoSource
		}
		return p.formats.Decode(s.Format, s.R)
	case *Reader:
		if s == nil {
			return nil, ErrNoSource
		}
		return p.open(*s)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSource, source)
	}
}

// LastPath returns the last file path played.
func (p *FilePlayer) LastPath() string {
	return p.lastPath
}

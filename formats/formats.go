// SPDX-License-Identifier: EPL-2.0

// Package formats wires the bundled decoders into an audio.Registry.
//
//	src, err := formats.Open("song.ogg")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/formats/aiff"
	"github.com/ik5/audfx/formats/mp3"
	"github.com/ik5/audfx/formats/vorbis"
	"github.com/ik5/audfx/formats/wav"
)

// Register adds every bundled decoder to reg under its usual file
// extensions.
func Register(reg *audio.Registry) {
	reg.Register("wav", wav.Decoder{})
	reg.Register("wave", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
}

var (
	defaultOnce sync.Once
	defaultReg  *audio.Registry
)

// Default returns a shared registry holding the bundled decoders.
func Default() *audio.Registry {
	defaultOnce.Do(func() {
		defaultReg = audio.NewRegistry()
		Register(defaultReg)
	})
	return defaultReg
}

// Open decodes the file at path with the Default registry, choosing the
// decoder by extension. The returned source owns the file.
func Open(path string) (audio.Source, error) {
	return OpenWith(Default(), path)
}

// OpenWith is Open with a caller supplied registry.
func OpenWith(reg *audio.Registry, path string) (audio.Source, error) {
	ext := filepath.Ext(path)
	if _, ok := reg.Get(ext); !ok {
		return nil, fmt.Errorf("%s: %w: %q", path, audio.ErrUnknownFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src, err := reg.Decode(ext, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return src, nil
}

// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"testing"

	"github.com/ik5/audfx/internal/audiotest"
)

func TestDownmixer_StereoToMono(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(16000, 2, 100, func(_ int, ch int) float32 {
		if ch == 0 {
			return 1.0
		}
		return 0.0
	})
	m := NewDownmixer(src)

	if m.Channels() != 1 {
		t.Fatalf("Channels() = %d, want 1", m.Channels())
	}

	got := readAll(t, m, 64)
	if len(got) != 100 {
		t.Fatalf("got %d samples, want 100", len(got))
	}
	for i, v := range got {
		if v != 0.5 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestDownmixer_ManyChannels(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(16000, 6, 10, func(_ int, ch int) float32 {
		return float32(ch) / 10
	})

	got := readAll(t, NewDownmixer(src), 4)
	for i, v := range got {
		if v < 0.2499 || v > 0.2501 {
			t.Fatalf("sample %d = %v, want 0.25", i, v)
		}
	}
}

func TestDownmixer_MonoPassthrough(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(8000, 1, 50)
	got := readAll(t, NewDownmixer(src), 16)

	if len(got) != 50 || got[10] != float32(10)/50 {
		t.Errorf("passthrough altered the signal: len=%d got[10]=%v", len(got), got[10])
	}
}

func TestUpmixer(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(8000, 1, 20)
	m := NewUpmixer(src, 2)

	if m.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", m.Channels())
	}

	got := readAll(t, m, 8)
	if len(got) != 40 {
		t.Fatalf("got %d samples, want 40", len(got))
	}
	for f := range 20 {
		if got[2*f] != got[2*f+1] {
			t.Fatalf("frame %d = (%v, %v), channels differ", f, got[2*f], got[2*f+1])
		}
	}

	if _, err := m.ReadSamples(make([]float32, 3)); !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("ReadSamples(3) error = %v, want ErrInvalidDstSize", err)
	}
}

func TestConform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		rate, channels      int
		wantRate, wantChans int
	}{
		{"untouched", 44100, 2, 44100, 2},
		{"resample only", 22050, 2, 44100, 2},
		{"mono to stereo", 44100, 1, 44100, 2},
		{"surround to stereo", 48000, 6, 44100, 2},
	}

	for _, tt := range tests {
		src := Conform(audiotest.NewSilentSource(tt.rate, tt.channels, 10), tt.wantRate, tt.wantChans)
		if src.SampleRate() != tt.wantRate || src.Channels() != tt.wantChans {
			t.Errorf("%s: Conform() = %d Hz x%d, want %d Hz x%d",
				tt.name, src.SampleRate(), src.Channels(), tt.wantRate, tt.wantChans)
		}
	}
}

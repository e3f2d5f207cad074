// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"testing"

	"github.com/ik5/audfx/internal/audiotest"
)

func TestMixer_SumsSources(t *testing.T) {
	t.Parallel()

	m := NewMixer(8000, 1, true)
	_ = m.Add(audiotest.NewConstantSource(8000, 1, 100, 0.25))
	_ = m.Add(audiotest.NewConstantSource(8000, 1, 50, 0.5))

	got := readAll(t, m, 32)
	if len(got) != 100 {
		t.Fatalf("got %d samples, want 100", len(got))
	}
	if got[10] != 0.75 {
		t.Errorf("sample 10 = %v, want 0.75", got[10])
	}
	if got[80] != 0.25 {
		t.Errorf("sample 80 = %v, want 0.25", got[80])
	}
}

func TestMixer_DropsAndClosesFinished(t *testing.T) {
	t.Parallel()

	short := audiotest.NewSilentSource(8000, 2, 10)
	long := audiotest.NewSilentSource(8000, 2, 1000)

	m := NewMixer(8000, 2, true)
	_ = m.Add(short)
	_ = m.Add(long)

	if _, err := m.ReadSamples(make([]float32, 64)); err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if short.Closed() != 1 {
		t.Errorf("finished source closed %d times, want 1", short.Closed())
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if long.Closed() != 1 {
		t.Errorf("remaining source closed %d times, want 1", long.Closed())
	}
	if err := m.Add(long); err == nil {
		t.Error("Add() after Close() succeeded")
	}
}

func TestMixer_KeepAlive(t *testing.T) {
	t.Parallel()

	m := NewMixer(8000, 1, false)

	n, err := m.ReadSamples(make([]float32, 16))
	if n != 16 || err != nil {
		t.Errorf("empty keep-alive mixer ReadSamples() = %d, %v; want 16, nil", n, err)
	}

	_ = m.Add(audiotest.NewConstantSource(8000, 1, 4, 1))
	buf := make([]float32, 8)
	if _, err := m.ReadSamples(buf); err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if buf[3] != 1 || buf[4] != 0 {
		t.Errorf("buf = %v, want four ones then silence", buf)
	}
}

func TestMixer_EmptyEnds(t *testing.T) {
	t.Parallel()

	m := NewMixer(8000, 1, true)
	if n, err := m.ReadSamples(make([]float32, 8)); n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() = %d, %v; want 0, EOF", n, err)
	}
}

func TestMixer_CollectsSourceErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad sector")
	src := audiotest.NewSilentSource(8000, 1, 100)
	src.FailAt = 0
	src.Err = boom

	m := NewMixer(8000, 1, false)
	_ = m.Add(src)
	_, _ = m.ReadSamples(make([]float32, 8))

	if err := m.Close(); !errors.Is(err, boom) {
		t.Errorf("Close() error = %v, want %v", err, boom)
	}
}

func TestMixer_ConformsOnAdd(t *testing.T) {
	t.Parallel()

	m := NewMixer(16000, 2, true)
	_ = m.Add(audiotest.NewConstantSource(8000, 1, 800, 0.5))

	got := readAll(t, m, 256)
	if frames := len(got) / 2; frames < 1598 || frames > 1602 {
		t.Errorf("got %d frames, want ~1600", frames)
	}
}

// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/ik5/audfx/internal/audiotest"
)

// mockDecoder is a test decoder implementation
type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(r io.Reader) (Source, error) {
	return audiotest.NewSilentSource(44100, 2, 100), nil
}

// failingDecoder always returns an error
type failingDecoder struct{}

func (d *failingDecoder) Decode(r io.Reader) (Source, error) {
	return nil, errors.New("decode failed")
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "wav"}

	registry.Register("wav", decoder)

	got, ok := registry.Get("wav")
	if !ok {
		t.Fatal("Registry.Get() failed to retrieve registered decoder")
	}

	if got != decoder {
		t.Error("Registry.Get() returned different decoder instance")
	}
}

func TestRegistry_KeyNormalization(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "mp3"}
	registry.Register(".MP3", decoder)

	for _, key := range []string{"mp3", "MP3", ".mp3", " .Mp3 "} {
		got, ok := registry.Get(key)
		if !ok || got != decoder {
			t.Errorf("Registry.Get(%q) = %v, %v; want registered decoder", key, got, ok)
		}
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register("ogg", &mockDecoder{})
	registry.Register("wav", &mockDecoder{})
	registry.Register("aiff", &mockDecoder{})

	got := strings.Join(registry.Formats(), ",")
	if got != "aiff,ogg,wav" {
		t.Errorf("Formats() = %q, want %q", got, "aiff,ogg,wav")
	}
}

func TestRegistry_Decode(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register("wav", &mockDecoder{})
	registry.Register("bad", &failingDecoder{})

	src, err := registry.Decode("wav", strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode(wav) error = %v", err)
	}
	if src.Channels() != 2 {
		t.Errorf("Decode(wav) channels = %d, want 2", src.Channels())
	}

	if _, err := registry.Decode("flac", strings.NewReader("")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Decode(flac) error = %v, want ErrUnknownFormat", err)
	}

	if _, err := registry.Decode("bad", strings.NewReader("")); err == nil {
		t.Error("Decode(bad) error = nil, want decoder failure")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "test"}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Register("format", decoder)
		}()
		go func() {
			defer wg.Done()
			_, _ = registry.Get("format")
		}()
	}
	wg.Wait()

	got, ok := registry.Get("format")
	if !ok || got != decoder {
		t.Error("Registry returned wrong decoder after concurrent operations")
	}
}

func BenchmarkRegistry_Get(b *testing.B) {
	registry := NewRegistry()
	registry.Register("wav", &mockDecoder{})

	b.ReportAllocs()

	for b.Loop() {
		_, _ = registry.Get("wav")
	}
}

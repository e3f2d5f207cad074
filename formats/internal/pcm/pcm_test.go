// SPDX-License-Identifier: EPL-2.0

package pcm

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
)

type fakeInts struct {
	data []int
	err  error
}

func (f *fakeInts) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := copy(buf.Data, f.data)
	f.data = f.data[n:]
	return n, nil
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestIntSource_ReadSamples(t *testing.T) {
	t.Parallel()

	dec := &fakeInts{data: []int{0, 16384, -32768, 32767, 8192}}
	src := NewIntSource(dec, nil, 8000, 1, 16)

	dst := make([]float32, 3)
	n, err := src.ReadSamples(dst)
	if n != 3 || err != nil {
		t.Fatalf("ReadSamples() = %d, %v; want 3, nil", n, err)
	}
	if dst[1] != 0.5 || dst[2] != -1 {
		t.Errorf("dst = %v, want [0 0.5 -1]", dst)
	}

	n, err = src.ReadSamples(dst)
	if n != 2 || err != nil {
		t.Fatalf("second ReadSamples() = %d, %v; want 2, nil", n, err)
	}

	n, err = src.ReadSamples(dst)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("third ReadSamples() = %d, %v; want 0, EOF", n, err)
	}
}

func TestIntSource_KeepsWholeFrames(t *testing.T) {
	t.Parallel()

	dec := &fakeInts{data: []int{1, 2, 3, 4, 5, 6}}
	src := NewIntSource(dec, nil, 8000, 2, 16)

	n, _ := src.ReadSamples(make([]float32, 5))
	if n != 4 {
		t.Errorf("ReadSamples(5) on stereo = %d, want 4", n)
	}
}

func TestIntSource_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("truncated chunk")
	src := NewIntSource(&fakeInts{err: boom}, nil, 8000, 1, 16)

	if _, err := src.ReadSamples(make([]float32, 4)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func TestIntSource_CloseClosesInput(t *testing.T) {
	t.Parallel()

	in := &closeTracker{Reader: strings.NewReader("")}
	src := NewIntSource(&fakeInts{}, in, 8000, 1, 16)

	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !in.closed {
		t.Error("Close() did not close the input")
	}
}

func TestReadSeeker(t *testing.T) {
	t.Parallel()

	br := bytes.NewReader([]byte("abc"))
	rs, err := ReadSeeker(br)
	if err != nil || rs != br {
		t.Errorf("ReadSeeker(bytes.Reader) = %v, %v; want the same reader", rs, err)
	}

	rs, err = ReadSeeker(io.MultiReader(strings.NewReader("ab"), strings.NewReader("c")))
	if err != nil {
		t.Fatalf("ReadSeeker() error = %v", err)
	}
	if _, err := rs.Seek(1, io.SeekStart); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	rest, _ := io.ReadAll(rs)
	if string(rest) != "bc" {
		t.Errorf("after Seek(1) read %q, want %q", rest, "bc")
	}
}

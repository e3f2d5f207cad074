// SPDX-License-Identifier: EPL-2.0

package beepengine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/fx"
)

func sineBlock(n int) [][2]float64 {
	block := make([][2]float64, n)
	for i := range block {
		v := 0.8 * math.Sin(2*math.Pi*440*float64(i)/testRate)
		block[i] = [2]float64{v, v}
	}
	return block
}

func TestNewProcessor(t *testing.T) {
	t.Parallel()

	unsupported := map[fx.Type]bool{fx.AutoWah: true, fx.PitchShift: true}

	for _, typ := range fx.Types() {
		t.Run(typ.String(), func(t *testing.T) {
			t.Parallel()

			proc, err := newProcessor(typ, testRate)
			if unsupported[typ] {
				if !errors.Is(err, engine.ErrUnsupportedEffect) {
					t.Errorf("error = %v, want ErrUnsupportedEffect", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}

			for range 4 {
				block := sineBlock(1024)
				proc.Process(block)
				for i, fr := range block {
					for _, v := range fr {
						if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 4 {
							t.Fatalf("frame %d = %v", i, fr)
						}
					}
				}
			}
		})
	}
}

func TestEcho(t *testing.T) {
	t.Parallel()

	e := newEcho(1000, 10*time.Millisecond, 0, 1)
	block := make([][2]float64, 30)
	block[0] = [2]float64{1, 1}
	e.Process(block)

	if block[0][0] != 1 {
		t.Errorf("dry impulse = %v, want 1", block[0][0])
	}
	if !near(block[10][0], 1) {
		t.Errorf("echo at 10 samples = %v, want 1", block[10][0])
	}
	if block[20][0] != 0 {
		t.Errorf("second repeat without feedback = %v, want 0", block[20][0])
	}
}

func TestSoftClip(t *testing.T) {
	t.Parallel()

	s := &softClip{drive: 4}
	block := [][2]float64{{10, -10}, {0, 0}}
	s.Process(block)

	if !near(block[0][0], 1) || !near(block[0][1], -1) || block[1][0] != 0 {
		t.Errorf("softClip = %v", block)
	}
}

func TestFadeIn(t *testing.T) {
	t.Parallel()

	f := &fadeIn{total: 4}
	block := [][2]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1}}
	f.Process(block)

	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i, w := range want {
		if block[i][0] != w {
			t.Errorf("frame %d = %v, want %v", i, block[i][0], w)
		}
	}
}

func TestCompressor_Reduces(t *testing.T) {
	t.Parallel()

	c := newCompressor(testRate, compParams{threshold: -20, ratio: 4, attack: 1, release: 50})
	block := make([][2]float64, 2000)
	for i := range block {
		block[i] = [2]float64{0.9, 0.9}
	}
	c.Process(block)

	if last := block[len(block)-1][0]; last >= 0.5 {
		t.Errorf("compressed level = %v, want well below 0.9", last)
	}
}

// SPDX-License-Identifier: EPL-2.0

package playback_test

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/fx"
	"github.com/ik5/audfx/internal/audiotest"
	"github.com/ik5/audfx/internal/enginetest"
	"github.com/ik5/audfx/playback"
)

// testPlayer is the smallest Controller built on Core.
type testPlayer struct {
	*playback.Core
	eng *enginetest.Engine
}

var _ playback.Controller = (*testPlayer)(nil)

func newTestPlayer(t *testing.T) *testPlayer {
	t.Helper()

	eng := enginetest.New()
	core, err := playback.NewCore(eng)
	if err != nil {
		t.Fatalf("NewCore() error = %v", err)
	}
	return &testPlayer{Core: core, eng: eng}
}

func (p *testPlayer) Play(source any) error {
	src, _ := source.(audio.Source)
	if src == nil {
		src = audiotest.NewSilentSource(8000, 1, 800)
	}

	return p.Begin(func(a playback.Attributes) (engine.StreamHandle, error) {
		var h engine.StreamHandle
		h, err := p.eng.OpenStream(src, func(err error) { p.Finish(h, err) })
		if err != nil {
			return engine.NoStream, err
		}
		if err := playback.PushAttributes(a, h, p.eng.SetAttribute); err != nil {
			return engine.NoStream, err
		}
		return h, p.eng.StartStream(h)
	})
}

func (p *testPlayer) Stop() error {
	return p.End(func(h engine.StreamHandle, _ *fx.Registry) error {
		return p.eng.CloseStream(h)
	})
}

func (p *testPlayer) Pause() error  { return p.Suspend(p.eng.PauseStream) }
func (p *testPlayer) Resume() error { return p.Continue(p.eng.ResumeStream) }

func TestNewCore_EngineUnavailable(t *testing.T) {
	t.Parallel()

	eng := enginetest.New()
	eng.InitErr = errors.New("no output device")

	core, err := playback.NewCore(eng)
	if core != nil {
		t.Error("NewCore() returned a Core for a failed engine")
	}
	if !errors.Is(err, engine.ErrEngineUnavailable) {
		t.Errorf("NewCore() error = %v, want ErrEngineUnavailable", err)
	}
}

func TestCore_InitialState(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	if p.State() != playback.Stopped || p.IsPlaying() {
		t.Errorf("new player state = %v, IsPlaying = %v", p.State(), p.IsPlaying())
	}
	if h := p.GetHandler(); h != engine.NoStream {
		t.Errorf("GetHandler() = %d, want NoStream", h)
	}
	if a := p.Attributes(); a != playback.DefaultAttributes() {
		t.Errorf("Attributes() = %+v, want defaults", a)
	}
	for _, typ := range fx.Types() {
		if h := p.GetFXHandler(typ); h != fx.None {
			t.Errorf("GetFXHandler(%v) = %d, want None", typ, h)
		}
	}
}

func TestCore_Lifecycle(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	steps := []struct {
		name    string
		op      func() error
		state   playback.State
		playing bool
	}{
		{"play", func() error { return p.Play(nil) }, playback.Playing, true},
		{"pause", p.Pause, playback.Paused, false},
		{"resume", p.Resume, playback.Playing, true},
		{"stop", p.Stop, playback.Stopped, false},
	}

	for _, st := range steps {
		if err := st.op(); err != nil {
			t.Fatalf("%s: error = %v", st.name, err)
		}
		if p.State() != st.state || p.IsPlaying() != st.playing {
			t.Fatalf("after %s: state = %v, IsPlaying = %v; want %v, %v",
				st.name, p.State(), p.IsPlaying(), st.state, st.playing)
		}
	}

	if n := p.eng.Open(); n != 0 {
		t.Errorf("open streams after Stop = %d, want 0", n)
	}
}

func TestCore_ForbiddenTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(p *testPlayer)
		op    func(p *testPlayer) error
		want  playback.State
	}{
		{"pause while stopped", func(*testPlayer) {}, (*testPlayer).Pause, playback.Stopped},
		{"resume while stopped", func(*testPlayer) {}, (*testPlayer).Resume, playback.Stopped},
		{"stop while stopped", func(*testPlayer) {}, (*testPlayer).Stop, playback.Stopped},
		{"resume while playing", func(p *testPlayer) { _ = p.Play(nil) }, (*testPlayer).Resume, playback.Playing},
		{"play while playing", func(p *testPlayer) { _ = p.Play(nil) }, func(p *testPlayer) error { return p.Play(nil) }, playback.Playing},
		{"pause while paused", func(p *testPlayer) { _ = p.Play(nil); _ = p.Pause() }, (*testPlayer).Pause, playback.Paused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newTestPlayer(t)
			tt.setup(p)
			before := p.GetHandler()

			if err := tt.op(p); !errors.Is(err, playback.ErrInvalidOperation) {
				t.Errorf("error = %v, want ErrInvalidOperation", err)
			}
			if p.State() != tt.want {
				t.Errorf("state = %v, want %v", p.State(), tt.want)
			}
			if p.GetHandler() != before {
				t.Errorf("GetHandler() changed from %d to %d", before, p.GetHandler())
			}
		})
	}
}

func TestCore_FailedOpenKeepsStopped(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)
	boom := errors.New("device lost")

	err := p.Begin(func(playback.Attributes) (engine.StreamHandle, error) {
		return engine.NoStream, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Begin() error = %v, want %v", err, boom)
	}
	if p.State() != playback.Stopped {
		t.Errorf("state = %v, want stopped", p.State())
	}
}

func TestCore_NaturalEnd(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	var ended atomic.Int32
	p.OnPlaybackEnded(func() { ended.Add(1) })

	if err := p.Play(nil); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	_ = p.SetFXHandler(fx.Echo, 7)
	h := p.GetHandler()

	if !p.eng.End(h, nil) {
		t.Fatal("stream was not open")
	}

	if ended.Load() != 1 {
		t.Errorf("listener ran %d times, want 1", ended.Load())
	}
	if p.State() != playback.Stopped || p.GetHandler() != engine.NoStream {
		t.Errorf("after end: state = %v, handler = %d", p.State(), p.GetHandler())
	}
	if got := p.GetFXHandler(fx.Echo); got != fx.None {
		t.Errorf("GetFXHandler(Echo) after end = %d, want None", got)
	}
	if p.Err() != nil {
		t.Errorf("Err() = %v, want nil", p.Err())
	}

	// a late duplicate report changes nothing
	p.Finish(h, nil)
	if ended.Load() != 1 {
		t.Errorf("listener ran %d times after duplicate Finish, want 1", ended.Load())
	}
}

func TestCore_EndedWithError(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)
	boom := errors.New("corrupt frame")

	_ = p.Play(nil)
	p.eng.End(p.GetHandler(), boom)

	if !errors.Is(p.Err(), boom) {
		t.Errorf("Err() = %v, want %v", p.Err(), boom)
	}

	// a fresh Play clears it
	_ = p.Play(nil)
	if p.Err() != nil {
		t.Errorf("Err() after Play = %v, want nil", p.Err())
	}
}

func TestCore_StopDoesNotNotify(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	var ended atomic.Int32
	p.OnPlaybackEnded(func() { ended.Add(1) })

	_ = p.Play(nil)
	h := p.GetHandler()
	_ = p.Stop()

	// the engine reporting the end of a stream that was stopped is stale
	p.Finish(h, nil)

	if ended.Load() != 0 {
		t.Errorf("listener ran %d times, want 0", ended.Load())
	}
}

func TestCore_StaleFinishDuringNewStream(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	var ended atomic.Int32
	p.OnPlaybackEnded(func() { ended.Add(1) })

	_ = p.Play(nil)
	old := p.GetHandler()
	_ = p.Stop()
	_ = p.Play(nil)

	p.Finish(old, nil)

	if !p.IsPlaying() || ended.Load() != 0 {
		t.Errorf("stale Finish: IsPlaying = %v, listener calls = %d", p.IsPlaying(), ended.Load())
	}
}

func TestCore_OnPlaybackEndedCancel(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	var order []string
	p.OnPlaybackEnded(func() { order = append(order, "first") })
	cancel := p.OnPlaybackEnded(func() { order = append(order, "cancelled") })
	p.OnPlaybackEnded(func() { order = append(order, "last") })
	cancel()

	_ = p.Play(nil)
	p.eng.End(p.GetHandler(), nil)

	if fmt.Sprint(order) != "[first last]" {
		t.Errorf("listeners ran %v, want [first last]", order)
	}
}

func TestCore_ListenerMayCallBack(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	var replayErr error
	p.OnPlaybackEnded(func() { replayErr = p.Play(nil) })

	_ = p.Play(nil)
	p.eng.End(p.GetHandler(), nil)

	if replayErr != nil || !p.IsPlaying() {
		t.Errorf("replay from listener: error = %v, IsPlaying = %v", replayErr, p.IsPlaying())
	}
}

func TestCore_SetAttribute(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	// stored while stopped, pushed on play
	if err := p.SetAttribute(engine.AttrVolume, 2.5, p.eng.SetAttribute); err != nil {
		t.Fatalf("SetAttribute() error = %v", err)
	}
	if v := p.Attributes().Volume; v != 1 {
		t.Errorf("Volume = %v, want clamped 1", v)
	}

	_ = p.SetAttribute(engine.AttrPanning, -0.5, p.eng.SetAttribute)
	_ = p.Play(nil)

	s, ok := p.eng.Stream(p.GetHandler())
	if !ok {
		t.Fatal("stream not open")
	}
	if s.Attrs[engine.AttrPanning] != -0.5 || s.Attrs[engine.AttrSpeed] != 1 {
		t.Errorf("pushed attributes = %v", s.Attrs)
	}

	_ = p.SetAttribute(engine.AttrPitch, -20, p.eng.SetAttribute)
	s, _ = p.eng.Stream(p.GetHandler())
	if s.Attrs[engine.AttrPitch] != -12 {
		t.Errorf("live pitch = %v, want -12", s.Attrs[engine.AttrPitch])
	}

	if err := p.SetAttribute(engine.Attribute(99), 1, nil); err == nil {
		t.Error("SetAttribute(unknown) succeeded")
	}
}

func TestCore_WithStream(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	noop := func(engine.StreamHandle, *fx.Registry) error { return nil }
	if err := p.WithStream(noop); !errors.Is(err, playback.ErrInvalidOperation) {
		t.Errorf("WithStream() while stopped error = %v", err)
	}

	_ = p.Play(nil)
	var got engine.StreamHandle
	err := p.WithStream(func(h engine.StreamHandle, reg *fx.Registry) error {
		got = h
		return reg.Set(fx.Chorus, 3)
	})
	if err != nil || got != p.GetHandler() {
		t.Errorf("WithStream() = %v, handle %d; want nil, %d", err, got, p.GetHandler())
	}
	if p.GetFXHandler(fx.Chorus) != 3 {
		t.Errorf("GetFXHandler(Chorus) = %d, want 3", p.GetFXHandler(fx.Chorus))
	}
}

func TestCore_SetPreset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		preset playback.Preset
		want   [4]int
	}{
		{playback.Default, [4]int{200, 25, 25, 400}},
		{playback.LowLatency, [4]int{50, 5, 5, 100}},
		{playback.Realtime, [4]int{10, 3, 3, 20}},
	}

	order := [4]engine.Param{
		engine.DeviceBufferLength,
		engine.DevicePeriod,
		engine.UpdatePeriod,
		engine.PlaybackBufferLength,
	}

	for _, tt := range tests {
		t.Run(tt.preset.String(), func(t *testing.T) {
			t.Parallel()

			p := newTestPlayer(t)
			p.SetPreset(tt.preset)

			got := p.eng.Settings()
			if len(got) != 4 {
				t.Fatalf("Configure called %d times, want 4", len(got))
			}
			for i, s := range got {
				if s.Param != order[i] || s.Value != tt.want[i] {
					t.Errorf("call %d = %v=%d, want %v=%d", i, s.Param, s.Value, order[i], tt.want[i])
				}
			}
			if p.Preset() != tt.preset {
				t.Errorf("Preset() = %v, want %v", p.Preset(), tt.preset)
			}
		})
	}
}

func TestCore_SetPresetUnknown(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)
	p.SetPreset(playback.Preset(17))

	if n := len(p.eng.Settings()); n != 0 {
		t.Errorf("unknown preset made %d Configure calls, want 0", n)
	}
}

func TestCore_EndToEnd(t *testing.T) {
	t.Parallel()

	p := newTestPlayer(t)

	p.SetPreset(playback.LowLatency)
	if err := p.SetFXHandler(fx.Echo, 42); err != nil {
		t.Fatalf("SetFXHandler() error = %v", err)
	}
	if err := p.Play(audiotest.NewSineSource(8000, 1, 8000, 440)); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	if !p.IsPlaying() {
		t.Error("IsPlaying() = false after Play")
	}
	if h := p.GetFXHandler(fx.Echo); h != 42 {
		t.Errorf("GetFXHandler(Echo) = %d, want 42", h)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.IsPlaying() {
		t.Error("IsPlaying() = true after Stop")
	}
}

// SPDX-License-Identifier: EPL-2.0

// Command audfx plays audio files through effect chains, either from an
// interactive shell or rendered straight to a WAV file.
//
//	audfx [flags] [file]
//	audfx -render out.wav -fx echo,freeverb in.mp3
//
// Defaults come from AUDFX_SAMPLE_RATE, AUDFX_PRESET, AUDFX_VOLUME and
// AUDFX_OUTPUT; flags override them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ik5/audfx"
	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/engine/beepengine"
	"github.com/ik5/audfx/formats"
	"github.com/ik5/audfx/fx"
	"github.com/ik5/audfx/playback"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("audfx: ")

	cfg := engine.LoadConfig()

	rate := flag.Int("rate", cfg.SampleRate, "mix sample rate in Hz")
	preset := flag.String("preset", cfg.Preset, "latency preset: default, lowlatency or realtime")
	volume := flag.Float64("volume", cfg.Volume, "initial volume, 0 to 1")
	output := flag.String("output", string(cfg.Output), "output: speaker or null")
	renderTo := flag.String("render", "", "render the input to this WAV file instead of playing it")
	effects := flag.String("fx", "", "comma separated effects to attach, e.g. echo,freeverb")
	tail := flag.Duration("tail", time.Second, "audio rendered after the input ends, with -render")
	verbose := flag.Bool("v", false, "log engine events")
	flag.Parse()

	p, err := playback.ParsePreset(*preset)
	if err != nil {
		log.Fatal(err)
	}
	chain, err := parseEffects(*effects)
	if err != nil {
		log.Fatal(err)
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "audfx: ", log.Ltime|log.Lmicroseconds)
	}

	if *renderTo != "" {
		if flag.NArg() != 1 {
			log.Fatal("-render needs exactly one input file")
		}
		if err := renderFile(flag.Arg(0), *renderTo, audfx.RenderOptions{
			SampleRate: *rate,
			Preset:     p,
			Attributes: &playback.Attributes{Volume: *volume, Speed: 1},
			Effects:    chain,
			Tail:       *tail,
			Logger:     logger,
		}); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := newEngine(ctx, engine.Output(strings.ToLower(*output)), *rate, p, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := eng.Shutdown(); err != nil {
			log.Print(err)
		}
	}()

	sh, err := newShell(eng, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	defer sh.close()
	for _, c := range []controls{sh.file, sh.mix} {
		c.SetPreset(p)
		if err := c.SetVolume(*volume); err != nil {
			log.Fatal(err)
		}
	}
	if flag.NArg() > 0 {
		if err := sh.file.Play(flag.Arg(0)); err != nil {
			log.Fatal(err)
		}
		for i, t := range chain {
			if err := sh.file.AddEffect(t, len(chain)-i); err != nil {
				log.Printf("%v: %v", t, err)
			}
		}
	}

	if err := runShell(ctx, sh); err != nil {
		log.Fatal(err)
	}
}

func parseEffects(list string) ([]fx.Type, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	var chain []fx.Type
	for _, name := range strings.Split(list, ",") {
		t, err := fx.ParseType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		chain = append(chain, t)
	}
	return chain, nil
}

// newEngine picks the sink for out. The null output is a Render sink driven
// in real time, so playback behaves the same without a device.
func newEngine(ctx context.Context, out engine.Output, rate int, p playback.Preset, logger *log.Logger) (*beepengine.Engine, error) {
	opts := []beepengine.Option{beepengine.WithSampleRate(rate), beepengine.WithLogger(logger)}

	switch out {
	case engine.OutputSpeaker:
		eng := beepengine.New(&beepengine.Speaker{}, opts...)
		playback.ApplyPreset(eng, p)
		return eng, nil
	case engine.OutputNull:
		sink := beepengine.NewRender(nil)
		eng := beepengine.New(sink, opts...)
		playback.ApplyPreset(eng, p)
		if err := eng.EnsureInitialized(); err != nil {
			return nil, err
		}
		go func() {
			if err := sink.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("null output: %v", err)
			}
		}()
		return eng, nil
	default:
		return nil, fmt.Errorf("unknown output %q", out)
	}
}

func renderFile(in, out string, opts audfx.RenderOptions) error {
	src, err := formats.Open(in)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		src.Close()
		return err
	}

	frames, err := audfx.Render(src, f, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	rate := opts.SampleRate
	if rate <= 0 {
		rate = beepengine.DefaultSampleRate
	}
	log.Printf("wrote %s: %d frames, %s", out, frames, time.Duration(frames)*time.Second/time.Duration(rate))
	return nil
}

// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/formats"
	"github.com/ik5/audfx/fx"
	"github.com/ik5/audfx/playback"
	"github.com/ik5/audfx/player"
)

const helpText = `commands:
  play [path]           play a file, or replay/resume the last one
  mix <path>...         mix files together, or add them to the running mix
  pause | resume | stop
  fx                    list attached effects
  fx add <name> [prio]  attach an effect
  fx rm <name>          detach an effect
  volume | pan | speed | pitch <value>
  preset <name>         default, lowlatency or realtime
  status
  quit`

// controls is what the shell drives on whichever player was used last.
type controls interface {
	playback.Controller
	AddEffect(t fx.Type, priority int) error
	RemoveEffect(t fx.Type) error
	SetVolume(v float64) error
	SetPanning(v float64) error
	SetSpeed(v float64) error
	SetPitch(v float64) error
	Attributes() playback.Attributes
	Preset() playback.Preset
	Err() error
}

type shell struct {
	file   *player.FilePlayer
	mix    *player.MixPlayer
	active controls
	out    io.Writer
	open   func(path string) (audio.Source, error)
	cancel []func()
}

func newShell(eng engine.Engine, out io.Writer) (*shell, error) {
	file, err := player.NewFilePlayer(eng)
	if err != nil {
		return nil, err
	}
	mix, err := player.NewMixPlayer(eng)
	if err != nil {
		return nil, err
	}

	sh := &shell{file: file, mix: mix, active: file, out: out, open: formats.Open}
	sh.cancel = append(sh.cancel,
		file.OnPlaybackEnded(func() { sh.ended("file", file.Err()) }),
		mix.OnPlaybackEnded(func() { sh.ended("mix", mix.Err()) }),
	)
	return sh, nil
}

func (sh *shell) ended(name string, err error) {
	if err != nil {
		fmt.Fprintf(sh.out, "%s ended: %v\n", name, err)
		return
	}
	fmt.Fprintf(sh.out, "%s ended\n", name)
}

func (sh *shell) close() {
	for _, c := range sh.cancel {
		c()
	}
	_ = sh.file.Close()
	_ = sh.mix.Close()
}

var errQuit = errors.New("quit")

// exec runs one command line. It returns errQuit on quit.
func (sh *shell) exec(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	switch cmd, args := strings.ToLower(args[0]), args[1:]; cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprintln(sh.out, helpText)
		return nil
	case "play":
		sh.active = sh.file
		if len(args) == 0 {
			return sh.file.Play(nil)
		}
		return sh.file.Play(strings.Join(args, " "))
	case "mix":
		return sh.playMix(args)
	case "pause":
		return sh.active.Pause()
	case "resume":
		return sh.active.Resume()
	case "stop":
		return sh.active.Stop()
	case "fx":
		return sh.effects(args)
	case "volume", "vol", "pan", "speed", "pitch":
		return sh.attribute(cmd, args)
	case "preset":
		if len(args) != 1 {
			return errors.New("usage: preset <name>")
		}
		p, err := playback.ParsePreset(args[0])
		if err != nil {
			return err
		}
		sh.file.SetPreset(p)
		sh.mix.SetPreset(p)
		return nil
	case "status":
		sh.status()
		return nil
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func (sh *shell) playMix(paths []string) error {
	if len(paths) == 0 {
		return errors.New("usage: mix <path>...")
	}

	sources := make([]audio.Source, 0, len(paths))
	for _, path := range paths {
		src, err := sh.open(path)
		if err != nil {
			for _, s := range sources {
				_ = s.Close()
			}
			return err
		}
		sources = append(sources, src)
	}

	sh.active = sh.mix
	if sh.mix.State() == playback.Stopped {
		return sh.mix.Play(sources)
	}

	var errs []error
	for _, src := range sources {
		if err := sh.mix.Add(src); err != nil {
			_ = src.Close()
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (sh *shell) effects(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(sh.out, strings.Join(sh.attached(), " "))
		return nil
	}

	switch {
	case args[0] == "add" && (len(args) == 2 || len(args) == 3):
		t, err := fx.ParseType(args[1])
		if err != nil {
			return err
		}
		prio := 0
		if len(args) == 3 {
			if prio, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("priority: %w", err)
			}
		}
		return sh.active.AddEffect(t, prio)
	case args[0] == "rm" && len(args) == 2:
		t, err := fx.ParseType(args[1])
		if err != nil {
			return err
		}
		return sh.active.RemoveEffect(t)
	default:
		return errors.New("usage: fx [add <name> [prio] | rm <name>]")
	}
}

func (sh *shell) attached() []string {
	var names []string
	for _, t := range fx.Types() {
		if sh.active.GetFXHandler(t) != fx.None {
			names = append(names, t.String())
		}
	}
	return names
}

func (sh *shell) attribute(name string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <value>", name)
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	switch name {
	case "volume", "vol":
		return sh.active.SetVolume(v)
	case "pan":
		return sh.active.SetPanning(v)
	case "speed":
		return sh.active.SetSpeed(v)
	default:
		return sh.active.SetPitch(v)
	}
}

func (sh *shell) status() {
	a := sh.active.Attributes()
	name := "file"
	if sh.active == controls(sh.mix) {
		name = fmt.Sprintf("mix (%d sources)", sh.mix.Len())
	}

	fmt.Fprintf(sh.out, "%s: %s, preset %s\n", name, sh.active.State(), sh.active.Preset())
	fmt.Fprintf(sh.out, "volume %.2f pan %.2f speed %.2f pitch %.1f\n", a.Volume, a.Panning, a.Speed, a.Pitch)
	if fxs := sh.attached(); len(fxs) > 0 {
		fmt.Fprintf(sh.out, "fx: %s\n", strings.Join(fxs, " "))
	}
	if last := sh.file.LastPath(); last != "" {
		fmt.Fprintf(sh.out, "last file: %s\n", last)
	}
	if err := sh.active.Err(); err != nil {
		fmt.Fprintf(sh.out, "last error: %v\n", err)
	}
}

func completer() *readline.PrefixCompleter {
	effects := func(string) []string {
		var names []string
		for _, t := range fx.Types() {
			names = append(names, t.String())
		}
		return names
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("play", readline.PcItemDynamic(listAudioFiles)),
		readline.PcItem("mix", readline.PcItemDynamic(listAudioFiles)),
		readline.PcItem("pause"),
		readline.PcItem("resume"),
		readline.PcItem("stop"),
		readline.PcItem("fx",
			readline.PcItem("add", readline.PcItemDynamic(effects)),
			readline.PcItem("rm", readline.PcItemDynamic(effects)),
		),
		readline.PcItem("volume"),
		readline.PcItem("pan"),
		readline.PcItem("speed"),
		readline.PcItem("pitch"),
		readline.PcItem("preset",
			readline.PcItem(playback.Default.String()),
			readline.PcItem(playback.LowLatency.String()),
			readline.PcItem(playback.Realtime.String()),
		),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func listAudioFiles(string) []string {
	entries, err := os.ReadDir(".")
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".wav", ".wave", ".aif", ".aiff", ".mp3", ".ogg", ".oga":
			names = append(names, e.Name())
		}
	}
	return names
}

func runShell(ctx context.Context, sh *shell) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       ">> ",
		AutoComplete: completer(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	fmt.Fprintln(sh.out, `audfx, type "help" for commands`)
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case err != nil:
			return nil
		}

		if err := sh.exec(line); errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
}

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mrdg/polyvox/audio"
)

// logger is the package-wide structured logger. It is never used from the
// audio callback.
var logger = slog.Default()

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// backend is an audio output that pulls from sources once per buffer.
type backend interface {
	AddSources(...audio.Source)
	AddTicker(audio.Ticker)
	Start() error
	Stop() error
}

func main() {
	var (
		backendName = flag.String("backend", "portaudio", "audio output: portaudio or oto")
		sampleRate  = flag.Float64("rate", 44100, "sample rate in Hz")
		bufferSize  = flag.Int("buffer", 256, "frames per audio buffer")
		midiPort    = flag.String("midi", "", "MIDI input port name to listen to, or \"list\"")
		run         = flag.String("run", "", "file of commands to run before the prompt")
		script      = flag.String("script", "", "Lua score to play")
		render      = flag.String("render", "", "render the Lua score to this WAV file instead of playing it")
		patchFile   = flag.String("patch", "", "YAML patch to load")
		presetName  = flag.String("preset", "", "built-in preset to load")
		keys        = flag.Bool("keys", false, "play notes from the computer keyboard")
		debug       = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()
	initLogger(*debug)

	if *midiPort == "list" {
		if err := listMIDIInputs(os.Stdout); err != nil {
			fatal(err)
		}
		return
	}
	if *render != "" && *script == "" {
		fatal(fmt.Errorf("-render needs a -script to render"))
	}

	inst := audio.NewInstrument(*sampleRate)
	if err := inst.Activate(*sampleRate, 1, *bufferSize); err != nil {
		fatal(err)
	}
	if err := inst.StartProcessing(); err != nil {
		fatal(err)
	}
	if *presetName != "" {
		if err := audio.LoadPreset(*presetName, inst); err != nil {
			fatal(err)
		}
	}
	if *patchFile != "" {
		patch, err := audio.LoadPatch(*patchFile)
		if err != nil {
			fatal(err)
		}
		if err := patch.Apply(inst); err != nil {
			fatal(err)
		}
		logger.Debug("patch loaded", "file", *patchFile, "name", patch.Name)
	}

	if *render != "" {
		r := audio.NewRenderer(*sampleRate, *bufferSize)
		r.AddSources(inst)
		host := &scriptHost{inst: inst, wait: r.Advance}
		if err := host.run(*script); err != nil {
			fatal(err)
		}
		if err := r.WriteFile(*render); err != nil {
			fatal(err)
		}
		logger.Info("rendered score", "file", *render, "frames", r.Frames())
		return
	}

	seq := audio.NewSequencer(audio.NewProps(), *sampleRate)

	var out backend
	var err error
	switch *backendName {
	case "portaudio":
		out, err = audio.NewSink(*sampleRate, *bufferSize)
	case "oto":
		out, err = audio.NewOtoSink(*sampleRate, *bufferSize)
	default:
		err = fmt.Errorf("unknown backend: %s", *backendName)
	}
	if err != nil {
		fatal(err)
	}
	out.AddTicker(seq)
	out.AddSources(inst)
	if err := out.Start(); err != nil {
		fatal(err)
	}
	defer func() {
		if err := out.Stop(); err != nil {
			logger.Error("stop audio backend", "err", err)
		}
		inst.StopProcessing()
		if n := inst.DroppedEvents(); n > 0 {
			logger.Warn("sequenced notes dropped", "count", n)
		}
	}()
	logger.Debug("audio started", "backend", *backendName, "rate", *sampleRate, "buffer", *bufferSize)

	if *midiPort != "" {
		in, err := openMIDI(*midiPort, inst)
		if err != nil {
			logger.Error("MIDI input unavailable", "err", err)
		} else {
			defer in.Close()
		}
	}

	env := &env{instrument: inst, sequencer: seq, bufferSize: *bufferSize, out: os.Stdout}
	if *run != "" {
		f, err := os.Open(*run)
		if err != nil {
			fatal(err)
		}
		err = env.runLines(f)
		f.Close()
		if err != nil {
			fatal(fmt.Errorf("%s: %w", *run, err))
		}
	}

	if *script != "" {
		host := &scriptHost{inst: inst, wait: func(seconds float64) {
			time.Sleep(time.Duration(seconds * float64(time.Second)))
		}}
		if err := host.run(*script); err != nil {
			logger.Error("script failed", "err", err)
		}
		return
	}

	if *keys {
		err = playKeys(inst, os.Stdin, os.Stdout)
	} else {
		err = repl(env)
	}
	if err != nil {
		logger.Error("input", "err", err)
	}
}

func fatal(err error) {
	logger.Error(err.Error())
	os.Exit(1)
}

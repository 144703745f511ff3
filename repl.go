package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/polyvox/audio"
	"github.com/mrdg/polyvox/dub"
	"golang.org/x/term"
)

const defaultVelocity = 0.8

type env struct {
	instrument *audio.Instrument
	sequencer  *audio.Sequencer
	bufferSize int
	out        io.Writer
}

func (e *env) eval(input string) (string, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return "", err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return "", fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v (usage: %s)",
					cmd.name, arity, len(command.Args), cmd.usage)
			}
		} else if len(command.Args) != cmd.arity {
			return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v (usage: %s)",
				cmd.name, cmd.arity, len(command.Args), cmd.usage)
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

// runLines evaluates commands read from r, stopping at the first error.
// Blank lines and comments are skipped.
func (e *env) runLines(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		result, err := e.eval(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if result != "" {
			fmt.Fprint(e.out, result)
		}
	}
	return scanner.Err()
}

// repl reads commands interactively. When stdin is not a terminal, commands
// are read line by line without line editing.
func repl(env *env) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return env.runLines(os.Stdin)
	}
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if result, err := env.eval(line); err != nil {
			fmt.Println(err)
		} else if result != "" {
			fmt.Print(result)
		}
	}
}

type command struct {
	name  string
	run   func(*env, []dub.Node) (string, error)
	arity int    // -n means len(args) must be >= n
	usage string // optional arguments in brackets
}

var commands []command

func init() {
	commands = []command{
		{"on", onCommand, -1, "on note [velocity]"},
		{"off", offCommand, 1, "off note"},
		{"set", setCommand, 2, "set param value"},
		{"get", getCommand, 1, "get param"},
		{"params", paramsCommand, 0, "params"},
		{"preset", presetCommand, 1, "preset name"},
		{"presets", presetsCommand, 0, "presets"},
		{"patch", patchCommand, 2, "patch load|save file"},
		{"loop", loopCommand, 3, "loop name beats pattern"},
		{"unloop", unloopCommand, 1, "unloop name"},
		{"bpm", bpmCommand, 1, "bpm n"},
		{"reset", resetCommand, 0, "reset"},
		{"voices", voicesCommand, 0, "voices"},
		{"render", renderCommand, -2, "render file seconds [notes]"},
		{"help", helpCommand, 0, "help"},
	}
}

func onCommand(env *env, args []dub.Node) (string, error) {
	var pitch int
	velocity := defaultVelocity
	if err := readArgs(args[:1], &pitch); err != nil {
		return "", err
	}
	if len(args) > 1 {
		if err := readArgs(args[1:2], &velocity); err != nil {
			return "", err
		}
	}
	if pitch < 0 || pitch > 127 {
		return "", fmt.Errorf("note out of range 0-127: %v", pitch)
	}
	if velocity < 0 || velocity > 1 {
		return "", fmt.Errorf("velocity out of range 0-1: %v", velocity)
	}
	env.instrument.NoteOn(0, pitch, velocity)
	return "", nil
}

func offCommand(env *env, args []dub.Node) (string, error) {
	var pitch int
	if err := readArgs(args, &pitch); err != nil {
		return "", err
	}
	if pitch < 0 || pitch > 127 {
		return "", fmt.Errorf("note out of range 0-127: %v", pitch)
	}
	env.instrument.NoteOff(0, pitch)
	return "", nil
}

func setCommand(env *env, args []dub.Node) (string, error) {
	var prop string
	if err := readArgs(args[:1], &prop); err != nil {
		return "", err
	}
	switch v := args[1].(type) {
	case dub.Number:
		return "", env.instrument.Set(prop, float64(v))
	case dub.String:
		return "", env.instrument.Set(prop, string(v))
	case dub.Identifier:
		return "", env.instrument.Set(prop, string(v))
	default:
		return "", fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (string, error) {
	var prop string
	if err := readArgs(args, &prop); err != nil {
		return "", err
	}
	id, err := audio.ParamByName(prop)
	if err != nil {
		return "", err
	}
	value, _ := env.instrument.ParamValue(id)
	text, err := env.instrument.ParamValueToText(id, value)
	if err != nil {
		return "", err
	}
	return text + "\n", nil
}

func paramsCommand(env *env, args []dub.Node) (string, error) {
	var b strings.Builder
	renderParams(env.instrument, &b)
	return b.String(), nil
}

func presetCommand(env *env, args []dub.Node) (string, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return "", err
	}
	return "", audio.LoadPreset(name, env.instrument)
}

func presetsCommand(env *env, args []dub.Node) (string, error) {
	return strings.Join(audio.Presets(), " ") + "\n", nil
}

func patchCommand(env *env, args []dub.Node) (string, error) {
	var action, file string
	if err := readArgs(args, &action, &file); err != nil {
		return "", err
	}
	switch action {
	case "load":
		patch, err := audio.LoadPatch(file)
		if err != nil {
			return "", err
		}
		return "", patch.Apply(env.instrument)
	case "save":
		patch, err := audio.CurrentPatch(strings.TrimSuffix(file, ".yaml"), env.instrument)
		if err != nil {
			return "", err
		}
		return "", audio.SavePatch(file, patch)
	default:
		return "", fmt.Errorf("unknown patch action: %s", action)
	}
}

func loopCommand(env *env, args []dub.Node) (string, error) {
	var name string
	var length float64
	var pattern dub.Array
	if err := readArgs(args, &name, &length, &pattern); err != nil {
		return "", err
	}
	if length <= 0 {
		return "", fmt.Errorf("loop length must be positive: %v", length)
	}
	clip := audio.NewClip(length, env.instrument)
	if err := evalPattern(pattern, clip, length, new(float64)); err != nil {
		return "", err
	}
	old, err := env.clips()
	if err != nil {
		return "", err
	}
	// copy the map so we don't modify it in place.
	clips := make(map[string]*audio.Clip, len(old)+1)
	for k, v := range old {
		clips[k] = v
	}
	clips[name] = clip
	if err := env.sequencer.Set("clips", clips); err != nil {
		return "", err
	}
	if prev, ok := old[name]; ok {
		env.releaseClip(prev)
	}
	return "", nil
}

func unloopCommand(env *env, args []dub.Node) (string, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return "", err
	}
	old, err := env.clips()
	if err != nil {
		return "", err
	}
	prev, ok := old[name]
	if !ok {
		return "", fmt.Errorf("unknown loop: %s", name)
	}
	clips := make(map[string]*audio.Clip, len(old))
	for k, v := range old {
		if k != name {
			clips[k] = v
		}
	}
	if err := env.sequencer.Set("clips", clips); err != nil {
		return "", err
	}
	env.releaseClip(prev)
	return "", nil
}

func (e *env) clips() (map[string]*audio.Clip, error) {
	v, err := e.sequencer.Get("clips")
	if err != nil {
		return nil, err
	}
	clips, ok := v.(map[string]*audio.Clip)
	if !ok {
		return nil, fmt.Errorf("cannot convert %v to clips", v)
	}
	return clips, nil
}

// releaseClip sends note-offs for every pitch of a clip that is no longer
// scheduled, so none of its notes keep sounding.
func (e *env) releaseClip(clip *audio.Clip) {
	for _, pitch := range clip.Pitches() {
		e.instrument.NoteOff(0, pitch)
	}
}

// evalPattern adds the notes of pattern to clip. Each item gets an equal share
// of divLength beats. Nested arrays subdivide their share, tuples play their
// notes together and negative numbers are rests.
func evalPattern(pattern dub.Array, clip *audio.Clip, divLength float64, pos *float64) error {
	if len(pattern) == 0 {
		return nil
	}
	noteLength := divLength / float64(len(pattern))
	for _, item := range pattern {
		switch v := item.(type) {
		case dub.Number:
			clip.AddNote(*pos, int(v), noteLength, defaultVelocity)
			*pos += noteLength
		case dub.Tuple:
			for _, item := range v {
				if i, ok := item.(dub.Number); ok {
					clip.AddNote(*pos, int(i), noteLength, defaultVelocity)
				}
			}
			*pos += noteLength
		case dub.Array:
			if err := evalPattern(v, clip, noteLength, pos); err != nil {
				return err
			}
		default:
			return fmt.Errorf("invalid %q in pattern %v", v, pattern)
		}
	}
	return nil
}

func bpmCommand(env *env, args []dub.Node) (string, error) {
	var bpm float64
	if err := readArgs(args, &bpm); err != nil {
		return "", err
	}
	return "", env.sequencer.Set("bpm", bpm)
}

func resetCommand(env *env, args []dub.Node) (string, error) {
	env.instrument.Reset()
	return "", nil
}

func voicesCommand(env *env, args []dub.Node) (string, error) {
	var b strings.Builder
	renderVoices(env.instrument.Voices(), &b)
	return b.String(), nil
}

// renderCommand renders notes held for the given duration, followed by their
// release tail, to a WAV file using the current parameters.
func renderCommand(env *env, args []dub.Node) (string, error) {
	var file string
	var seconds float64
	if err := readArgs(args[:2], &file, &seconds); err != nil {
		return "", err
	}
	if seconds <= 0 {
		return "", errors.New("duration must be positive")
	}
	var pitches []int
	for _, arg := range args[2:] {
		var pitch int
		if err := readArgs([]dub.Node{arg}, &pitch); err != nil {
			return "", err
		}
		pitches = append(pitches, pitch)
	}
	if len(pitches) == 0 {
		pitches = []int{69}
	}

	patch, err := audio.CurrentPatch("render", env.instrument)
	if err != nil {
		return "", err
	}
	rate := env.instrument.SampleRate()
	inst := audio.NewInstrument(rate)
	if err := patch.Apply(inst); err != nil {
		return "", err
	}
	if err := inst.Activate(rate, 1, env.bufferSize); err != nil {
		return "", err
	}
	if err := inst.StartProcessing(); err != nil {
		return "", err
	}
	r := audio.NewRenderer(rate, env.bufferSize)
	r.AddSources(inst)
	for _, p := range pitches {
		inst.NoteOn(0, p, defaultVelocity)
	}
	r.Advance(seconds)
	for _, p := range pitches {
		inst.NoteOff(0, p)
	}
	r.Advance(patch.Release)
	if err := r.WriteFile(file); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %d frames to %s\n", r.Frames(), file), nil
}

func helpCommand(env *env, args []dub.Node) (string, error) {
	usages := make([]string, 0, len(commands))
	for _, cmd := range commands {
		usages = append(usages, cmd.usage)
	}
	sort.Strings(usages)
	return strings.Join(usages, "\n") + "\n", nil
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			n, ok := arg.(dub.Number)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = float64(n)
		case *int:
			n, ok := arg.(dub.Number)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = int(n)
		case *dub.Array:
			arr, ok := arg.(dub.Array)
			if !ok {
				return fmt.Errorf("argument error: expected an array")
			}
			*p = arr
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}

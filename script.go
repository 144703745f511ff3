package main

import (
	"fmt"

	"github.com/mrdg/polyvox/audio"
	lua "github.com/yuin/gopher-lua"
)

// scriptHost exposes an instrument to Lua score scripts. wait advances time,
// either by sleeping in front of a live backend or by rendering offline.
type scriptHost struct {
	inst *audio.Instrument
	wait func(seconds float64)
}

func (h *scriptHost) run(path string) error {
	L := lua.NewState()
	defer L.Close()
	for name, fn := range map[string]lua.LGFunction{
		"note_on":  h.noteOn,
		"note_off": h.noteOff,
		"set":      h.set,
		"preset":   h.preset,
		"reset":    h.reset,
		"wait":     h.waitFor,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

func (h *scriptHost) noteOn(L *lua.LState) int {
	pitch := L.CheckInt(1)
	velocity := float64(L.OptNumber(2, defaultVelocity))
	if pitch < 0 || pitch > 127 {
		L.ArgError(1, "note out of range 0-127")
	}
	h.inst.NoteOn(0, pitch, velocity)
	return 0
}

func (h *scriptHost) noteOff(L *lua.LState) int {
	h.inst.NoteOff(0, L.CheckInt(1))
	return 0
}

func (h *scriptHost) set(L *lua.LState) int {
	name := L.CheckString(1)
	var value interface{}
	switch v := L.Get(2).(type) {
	case lua.LNumber:
		value = float64(v)
	case lua.LString:
		value = string(v)
	default:
		L.ArgError(2, "number or string expected")
		return 0
	}
	if err := h.inst.Set(name, value); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (h *scriptHost) preset(L *lua.LState) int {
	if err := audio.LoadPreset(L.CheckString(1), h.inst); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (h *scriptHost) reset(L *lua.LState) int {
	h.inst.Reset()
	return 0
}

func (h *scriptHost) waitFor(L *lua.LState) int {
	seconds := float64(L.CheckNumber(1))
	if seconds < 0 {
		L.ArgError(1, "duration must not be negative")
	}
	h.wait(seconds)
	return 0
}

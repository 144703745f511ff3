package audio

// Controller numbers mapped onto synth parameters. The assignments follow the
// General MIDI 2 sound controller defaults where one exists.
var ccParams = map[uint8]ParamID{
	7:  ParamVolume,
	70: ParamWaveform,
	72: ParamRelease,
	73: ParamAttack,
	75: ParamDecay,
	79: ParamSustain,
}

// HandleMIDI queues the event encoded in a raw channel voice message. Note-on
// with zero velocity is a note-off. Messages other than notes and mapped
// controllers are ignored.
func (i *Instrument) HandleMIDI(offset int, msg []byte) {
	if len(msg) < 3 {
		return
	}
	status, data1, data2 := msg[0]&0xF0, msg[1]&0x7F, msg[2]&0x7F
	switch {
	case status == 0x90 && data2 > 0:
		i.NoteOn(offset, int(data1), float64(data2)/127.0)
	case status == 0x80 || status == 0x90:
		i.NoteOff(offset, int(data1))
	case status == 0xB0:
		id, ok := ccParams[data1]
		if !ok {
			return
		}
		info := ParamInfos[id]
		i.SetParam(id, info.Min+float64(data2)/127.0*(info.Max-info.Min))
	}
}

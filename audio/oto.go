package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays sources through oto. oto pulls interleaved float32 samples
// from the sink's Read method on its own goroutine.
type OtoSink struct {
	mixer
	ctx    *oto.Context
	player *oto.Player
	mu     sync.Mutex // guards player
	bufs   [2][]float32
	out    [][]float32
}

func NewOtoSink(sampleRate float64, bufferSize int) (*OtoSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(float64(bufferSize) / sampleRate * float64(time.Second)),
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("oto: %w", err)
	}
	<-ready
	return &OtoSink{
		ctx:  ctx,
		bufs: [2][]float32{make([]float32, bufferSize), make([]float32, bufferSize)},
		out:  make([][]float32, 2),
	}, nil
}

// Read renders len(p)/8 stereo frames.
func (s *OtoSink) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if len(s.bufs[0]) < frames {
		s.bufs[0] = make([]float32, frames)
		s.bufs[1] = make([]float32, frames)
	}
	s.out[0], s.out[1] = s.bufs[0][:frames], s.bufs[1][:frames]
	s.Process(s.out)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint32(p[i*8:], math.Float32bits(s.out[0][i]))
		binary.LittleEndian.PutUint32(p[i*8+4:], math.Float32bits(s.out[1][i]))
	}
	return frames * 8, nil
}

func (s *OtoSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		s.player = s.ctx.NewPlayer(s)
	}
	s.player.Play()
	return nil
}

func (s *OtoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	return err
}

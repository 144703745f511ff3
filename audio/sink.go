package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Source renders audio into non-interleaved channel buffers, adding to what is
// already there.
type Source interface {
	Process([][]float32) ProcessStatus
}

// Ticker is called once per buffer, before any source is processed.
type Ticker interface {
	Tick(numSamples int)
}

// mixer zeroes the output and runs tickers and sources in order. It is shared
// by every output backend.
type mixer struct {
	sources []Source
	tickers []Ticker
}

func (m *mixer) AddSources(sources ...Source) {
	m.sources = append(m.sources, sources...)
}

func (m *mixer) AddTicker(ticker Ticker) {
	m.tickers = append(m.tickers, ticker)
}

func (m *mixer) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	if len(samples) == 0 {
		return
	}
	for _, ticker := range m.tickers {
		ticker.Tick(len(samples[0]))
	}
	for _, source := range m.sources {
		source.Process(samples)
	}
}

// Sink plays sources through the default portaudio output device.
type Sink struct {
	mixer
	stream *portaudio.Stream
}

func NewSink(sampleRate float64, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}
	var s Sink
	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, bufferSize, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio: open stream: %w", err)
	}
	s.stream = stream
	return &s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

func (s *Sink) Stop() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}

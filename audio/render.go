package audio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/youpy/go-wav"
)

// Renderer runs sources offline, as fast as possible, and collects the output
// so it can be written as a WAV file. Buffers are processed exactly as a live
// sink would process them.
type Renderer struct {
	mixer
	sampleRate  float64
	bufferSize  int
	bufs        [][]float32
	left, right []float32
}

func NewRenderer(sampleRate float64, bufferSize int) *Renderer {
	return &Renderer{
		sampleRate: sampleRate,
		bufferSize: bufferSize,
		bufs:       [][]float32{make([]float32, bufferSize), make([]float32, bufferSize)},
	}
}

// Advance renders the given duration and appends it to the output.
func (r *Renderer) Advance(seconds float64) {
	frames := int(math.Round(seconds * r.sampleRate))
	for frames > 0 {
		n := r.bufferSize
		if frames < n {
			n = frames
		}
		bufs := [][]float32{r.bufs[0][:n], r.bufs[1][:n]}
		r.Process(bufs)
		r.left = append(r.left, bufs[0]...)
		r.right = append(r.right, bufs[1]...)
		frames -= n
	}
}

// Frames returns the number of frames rendered so far.
func (r *Renderer) Frames() int { return len(r.left) }

// Samples returns the rendered channels.
func (r *Renderer) Samples() (left, right []float32) { return r.left, r.right }

const wavBitsPerSample = 16

// WriteWAV writes the rendered output as a 16 bit stereo WAV file. Samples
// outside [-1, 1] are clipped.
func (r *Renderer) WriteWAV(w io.Writer) error {
	const scale = 1<<(wavBitsPerSample-1) - 1
	writer := wav.NewWriter(w, uint32(len(r.left)), 2, uint32(r.sampleRate), wavBitsPerSample)
	samples := make([]wav.Sample, 0, r.bufferSize)
	for n := range r.left {
		samples = append(samples, wav.Sample{Values: [2]int{
			int(scale * clip(r.left[n])),
			int(scale * clip(r.right[n])),
		}})
		if len(samples) == cap(samples) || n == len(r.left)-1 {
			if err := writer.WriteSamples(samples); err != nil {
				return fmt.Errorf("write samples: %w", err)
			}
			samples = samples[:0]
		}
	}
	return nil
}

// WriteFile writes the rendered output to a WAV file at path.
func (r *Renderer) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := r.WriteWAV(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func clip(s float32) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return float64(s)
}

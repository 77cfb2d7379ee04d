package harness

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Analyser constants follow the browser frequency analyser defaults.
const (
	FFTSize     = 256
	MinDecibels = -100.0
	MaxDecibels = -30.0
	Smoothing   = 0.8
)

// Analyser computes a 0-100 level from the most recent FFTSize samples. The
// level is the average of byte-scaled bin magnitudes in decibels.
type Analyser struct {
	mu       sync.Mutex
	ring     []float64
	pos      int
	fft      *fourier.FFT
	frame    []float64
	coeffs   []complex128
	smoothed []float64
	closed   bool
}

// NewAnalyser creates an analyser holding silence.
func NewAnalyser() *Analyser {
	return &Analyser{
		ring:     make([]float64, FFTSize),
		fft:      fourier.NewFFT(FFTSize),
		frame:    make([]float64, FFTSize),
		smoothed: make([]float64, FFTSize/2),
	}
}

// Write appends samples. Only the last FFTSize samples are kept.
func (a *Analyser) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if len(samples) > FFTSize {
		samples = samples[len(samples)-FFTSize:]
	}
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % FFTSize
	}
}

// Level returns the current level in 0-100.
func (a *Analyser) Level() (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, ErrAnalyserClosed
	}

	// oldest sample first
	n := copy(a.frame, a.ring[a.pos:])
	copy(a.frame[n:], a.ring[:a.pos])
	window.Hann(a.frame)
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	var sum float64
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) / FFTSize
		a.smoothed[k] = Smoothing*a.smoothed[k] + (1-Smoothing)*mag
		sum += byteMagnitude(a.smoothed[k])
	}
	avg := sum / float64(len(a.smoothed))
	return avg / 255 * 100, nil
}

// Close releases the analysis buffers. Further calls to Level fail.
func (a *Analyser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.ring = nil
	a.frame = nil
	a.coeffs = nil
	return nil
}

func byteMagnitude(mag float64) float64 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	scaled := 255 * (db - MinDecibels) / (MaxDecibels - MinDecibels)
	return math.Max(0, math.Min(255, math.Floor(scaled)))
}

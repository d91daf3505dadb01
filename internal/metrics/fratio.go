package metrics

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// lowBandFloor is the low-band energy below which the ratio is undefined.
const lowBandFloor = 1e-12

// FRatio compares spectral energy in a high frequency band against a low
// one, as log2(E_high / E_low). Rising values flag a shift from low-frequency
// (fluid-driven) to high-frequency (brittle-failure) seismicity.
type FRatio struct {
	LowMin, LowMax   float64
	HighMin, HighMax float64
}

func (FRatio) Name() string { return "fratio" }

func (f FRatio) Compute(samples []float64, rate float64) float64 {
	if rate <= 0 || len(samples) == 0 {
		return math.NaN()
	}

	// Demean over the valid samples, then zero-fill gaps so the FFT sees a
	// contiguous window. Zeros contribute no band energy.
	sum, n := 0.0, 0
	for _, v := range samples {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	mean := sum / float64(n)

	seq := make([]float64, len(samples))
	for i, v := range samples {
		if math.IsNaN(v) {
			seq[i] = 0
		} else {
			seq[i] = v - mean
		}
	}

	fft := fourier.NewFFT(len(seq))
	coefs := fft.Coefficients(nil, seq)

	var lowE, highE float64
	for i, c := range coefs {
		freq := float64(i) * rate / float64(len(seq))
		p := cmplx.Abs(c)
		p *= p
		if freq >= f.LowMin && freq < f.LowMax {
			lowE += p
		}
		if freq >= f.HighMin && freq < f.HighMax {
			highE += p
		}
	}

	if lowE <= lowBandFloor {
		return math.NaN()
	}
	return math.Log2(highE / lowE)
}

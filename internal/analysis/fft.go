package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Autocorrelation returns C(k) = ⟨x(t)x(t+k)⟩ for k in [0, maxLag], each
// lag averaged over the n−k available pairs. The series is zero padded so
// the circular FFT correlation equals the linear one.
func Autocorrelation(x []float64, maxLag int) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	if maxLag < 0 || maxLag >= n {
		maxLag = n - 1
	}

	padded := make([]float64, nextPow2(2*n))
	copy(padded, x)

	coeffs := fft.FFTReal(padded)
	for i, c := range coeffs {
		coeffs[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	corr := fft.IFFT(coeffs)

	out := make([]float64, maxLag+1)
	for k := range out {
		out[k] = real(corr[k]) / float64(n-k)
	}
	return out
}

// PowerSpectrum returns the magnitude of the first half of the spectrum.
func PowerSpectrum(data []float64) []float64 {
	coeffs := fft.FFTReal(data)
	ps := make([]float64, len(coeffs)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

package oversample

import "math"

// besselI0 evaluates the zeroth-order modified Bessel function of the
// first kind via its power series, accurate enough for Kaiser window
// design at the beta values used here (beta <= 10).
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	halfX := x / 2
	for k := 1; k < 32; k++ {
		term *= (halfX * halfX) / (float64(k) * float64(k))
		sum += term
		if term < 1e-15*sum {
			break
		}
	}
	return sum
}

// kaiserWindow returns the Kaiser window of length n with shape beta.
func kaiserWindow(n int, beta float64) []float64 {
	w := make([]float64, n)
	denom := besselI0(beta)
	m := float64(n - 1)
	for i := 0; i < n; i++ {
		r := 2*float64(i)/m - 1 // [-1, 1]
		w[i] = besselI0(beta*math.Sqrt(1-r*r)) / denom
	}
	return w
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// designLowpass builds a windowed-sinc lowpass FIR with normalised
// cutoff (fraction of Nyquist, 0 < cutoff < 1) and length n (odd,
// linear phase), Kaiser-windowed with the given beta, normalised to
// unity DC gain.
func designLowpass(cutoff float64, n int, beta float64) []float64 {
	if n%2 == 0 {
		n++
	}
	taps := make([]float64, n)
	win := kaiserWindow(n, beta)
	centre := float64(n-1) / 2
	sum := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) - centre
		taps[i] = cutoff * sinc(cutoff*t) * win[i]
		sum += taps[i]
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps
}

// Oversampler wraps a nonlinear block in an integer-factor
// upsample/process/downsample sandwich. One windowed-sinc lowpass
// prototype, designed once at construction, serves as both the
// anti-imaging filter on the way up and the anti-aliasing filter on
// the way down; only its shifting history buffers are touched per
// sample, so Process never allocates.
type Oversampler struct {
	factor   int
	taps     []float64
	upHist   []float64 // shifting window of zero-stuffed upsampled input
	downHist []float64 // shifting window of oversampled input awaiting decimation
}

// NewOversampler builds an oversampler for factor in {2,4,8}. tapCount
// controls filter length (and therefore latency/stopband rejection);
// 63 is a reasonable default for audio-rate distortion anti-aliasing.
func NewOversampler(factor, tapCount int) *Oversampler {
	cutoff := 0.9 / float64(factor) // inside Nyquist/factor, leaving a transition band
	taps := designLowpass(cutoff, tapCount, 8.6)
	return &Oversampler{
		factor:   factor,
		taps:     taps,
		upHist:   make([]float64, len(taps)),
		downHist: make([]float64, len(taps)),
	}
}

// Factor reports the oversampling ratio.
func (o *Oversampler) Factor() int { return o.factor }

// LatencySamples reports the combined upsample+downsample filter group
// delay, in samples at the original (non-oversampled) rate.
func (o *Oversampler) LatencySamples() int {
	return (len(o.taps) - 1) / o.factor
}

func push(hist []float64, x float64) {
	copy(hist[1:], hist[:len(hist)-1])
	hist[0] = x
}

func fir(taps, hist []float64) float64 {
	acc := 0.0
	for k, c := range taps {
		acc += c * hist[k]
	}
	return acc
}

// Upsample inserts factor-1 zeros between each input sample (scaled by
// factor to restore unity passband gain, since zero-stuffing attenuates
// by 1/factor) and runs the anti-imaging lowpass. out must have length
// len(in)*factor.
func (o *Oversampler) Upsample(in []float32, out []float32) {
	gain := float64(o.factor)
	for i, x := range in {
		base := i * o.factor
		push(o.upHist, float64(x)*gain)
		out[base] = float32(fir(o.taps, o.upHist))
		for phase := 1; phase < o.factor; phase++ {
			push(o.upHist, 0)
			out[base+phase] = float32(fir(o.taps, o.upHist))
		}
	}
}

// Downsample runs the anti-aliasing lowpass over the oversampled signal
// and decimates by factor. out must have length len(in)/factor.
func (o *Oversampler) Downsample(in []float32, out []float32) {
	outIdx := 0
	for i, x := range in {
		push(o.downHist, float64(x))
		if i%o.factor == o.factor-1 {
			out[outIdx] = float32(fir(o.taps, o.downHist))
			outIdx++
		}
	}
}

// UpsampleOne produces this sample's factor oversampled outputs into
// out (which must have length Factor()), without touching a block-sized
// scratch buffer. Used by OversampledEffect to stay allocation-free at
// per-sample granularity.
func (o *Oversampler) UpsampleOne(x float32, out []float32) {
	gain := float64(o.factor)
	push(o.upHist, float64(x)*gain)
	out[0] = float32(fir(o.taps, o.upHist))
	for phase := 1; phase < o.factor; phase++ {
		push(o.upHist, 0)
		out[phase] = float32(fir(o.taps, o.upHist))
	}
}

// DownsampleOne decimates factor oversampled samples (in, length
// Factor()) down to the single sample at the original rate.
func (o *Oversampler) DownsampleOne(in []float32) float32 {
	var y float32
	for _, x := range in {
		push(o.downHist, float64(x))
		y = float32(fir(o.taps, o.downHist))
	}
	return y
}

// Reset clears both filters' history without discarding the designed
// taps.
func (o *Oversampler) Reset() {
	for i := range o.upHist {
		o.upHist[i] = 0
	}
	for i := range o.downHist {
		o.downHist[i] = 0
	}
}

// ProcessBlock oversamples buf, applies nonlinear at the oversampled
// rate, and decimates back, all through caller-provided scratch sized
// len(buf)*factor so the call stays allocation-free.
func (o *Oversampler) ProcessBlock(buf []float32, scratch []float32, nonlinear func([]float32)) {
	o.Upsample(buf, scratch)
	nonlinear(scratch)
	o.Downsample(scratch, buf)
}

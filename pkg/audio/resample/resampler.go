// ABOUTME: Linear interpolation rate converter for one channel
// ABOUTME: Carries fractional position and the previous sample across calls
package resample

// Linear performs linear interpolation to convert a single channel between
// sample rates. State persists across Process calls so consecutive chunks
// resample exactly as if they had been processed in one piece.
type Linear struct {
	inputRate  int
	outputRate int
	ratio      float64 // input samples advanced per output sample
	position   float64 // next output position, 0 = previous sample
	last       float64
	primed     bool
	out        []float64
}

// NewLinear creates a new linear converter
func NewLinear(inputRate, outputRate int) *Linear {
	return &Linear{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Process converts input samples to the output rate.
// The returned slice is reused by the next call.
func (r *Linear) Process(input []float64) ([]float64, error) {
	out := r.out[:0]
	if len(input) == 0 {
		return out, nil
	}

	// Sample 0 of the virtual input is the last sample of the previous call
	offset := 0
	if r.primed {
		offset = 1
	}
	at := func(i int) float64 {
		if i < offset {
			return r.last
		}
		return input[i-offset]
	}
	frames := len(input) + offset

	for {
		idx := int(r.position)
		if idx >= frames-1 {
			break
		}

		// Linear interpolation
		frac := r.position - float64(idx)
		out = append(out, at(idx)*(1.0-frac)+at(idx+1)*frac)
		r.position += r.ratio
	}

	// Rebase so the final input sample becomes sample 0
	r.position -= float64(frames - 1)
	r.last = input[len(input)-1]
	r.primed = true
	r.out = out

	return out, nil
}

// Flush emits the outputs that fall after the final input sample by
// holding that sample, then resets the converter.
func (r *Linear) Flush() ([]float64, error) {
	out := r.out[:0]
	if r.primed {
		for r.position < 1.0 {
			out = append(out, r.last)
			r.position += r.ratio
		}
	}
	r.out = out
	r.Reset()
	return out, nil
}

// Reset resets the converter state
func (r *Linear) Reset() {
	r.position = 0.0
	r.last = 0
	r.primed = false
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Linear) OutputSamplesNeeded(inputSamples int) int {
	return int(float64(inputSamples) / r.ratio)
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Linear) InputSamplesNeeded(outputSamples int) int {
	return int(float64(outputSamples) * r.ratio)
}

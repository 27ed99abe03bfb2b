package ktlx

import (
	"fmt"
	"math"
)

// Per-channel gain formulas by amplifier stage, from the manufacturer's
// headbox revision notes. The device reports microvolts.
const (
	gainEEG  = 8711.0 / (221 - 0.5)
	gainDC   = (5000000.0 / (210 - 0.5)) / 26
	gainAux  = 1.0 / 26
	gainSpO2 = (10800000.0 / 65536) / 26
)

// gainRange applies one gain to a contiguous run of channels. count -1 means
// the run covers every channel of the recording.
type gainRange struct {
	count int
	gain  float64
}

// headboxGains maps a headbox type code to its channel layout. Layouts are
// dimensioned for the hardware maximum; a recording may use fewer channels.
var headboxGains = map[int32][]gainRange{
	1: {{-1, gainEEG}},
	3: {{-1, gainEEG}},
	4: {
		{24, gainEEG},
		{4, gainDC},
	},
	21: {
		{128, gainEEG},
		{2, gainAux},
		{126, gainEEG},
	},
	22: {
		{32, gainEEG},
		{8, gainSpO2},
		{2, gainAux},
		{1, gainSpO2},
	},
}

// conversionFactors builds the per-channel raw-to-volts factor vector for one
// recording: the headbox gain, scaled by 2^discardBits and by 1e-6 to turn
// the hardware's microvolt figures into volts. The vector is truncated to the
// recording's channel count.
func conversionFactors(headboxType, discardBits int32, numChannels int) ([]float64, error) {
	ranges, ok := headboxGains[headboxType]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedHeadbox, headboxType)
	}

	scale := math.Ldexp(1e-6, int(discardBits))
	factors := make([]float64, 0, numChannels)
	for _, r := range ranges {
		count := r.count
		if count < 0 {
			count = numChannels
		}
		for i := 0; i < count && len(factors) < numChannels; i++ {
			factors = append(factors, r.gain*scale)
		}
	}
	if len(factors) < numChannels {
		return nil, fmt.Errorf("%w: headbox %d lays out %d channels, recording has %d",
			ErrUnsupportedHeadbox, headboxType, len(factors), numChannels)
	}
	return factors, nil
}

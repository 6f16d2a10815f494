package audio

import "math"

// RMS returns the root-mean-square energy of little-endian int16 PCM,
// normalised to [0, 1]. Empty input yields 0.
//
// The value feeds the detector's energy-threshold silence check; it is not
// a voice activity detector, just a loudness measure.
func RMS(pcm []byte) float64 {
	sampleCount := len(pcm) / 2
	if sampleCount == 0 {
		return 0
	}
	var sum float64
	for i := range sampleCount {
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		n := float64(s) / 32768.0
		sum += n * n
	}
	return math.Sqrt(sum / float64(sampleCount))
}

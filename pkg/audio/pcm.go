// Package audio provides the small set of PCM helpers the assessment
// pipeline needs: int16 ↔ float32 conversion with peak normalisation, RMS
// energy for silence detection, and linear-interpolation resampling to the
// model's 16 kHz mono input format.
//
// All functions operate on little-endian 16-bit PCM and are pure; they are
// safe for concurrent use.
package audio

// ModelSampleRate is the sample rate the acoustic front end expects.
const ModelSampleRate = 16000

// normalisationPeak is the target peak amplitude after normalisation,
// matching the model's training-time preprocessing.
const normalisationPeak = 0.9

// PCMToFloat32 converts little-endian int16 PCM bytes to float32 samples in
// [-1, 1). A trailing odd byte is ignored.
func PCMToFloat32(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		samples[i] = float32(s) / 32768.0
	}
	return samples
}

// NormalizePeak scales samples in place so that the largest absolute sample
// equals 0.9, the level the acoustic model was trained on. Silent input is
// returned unchanged.
func NormalizePeak(samples []float32) []float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if peak == 0 {
		return samples
	}
	scale := normalisationPeak / peak
	for i := range samples {
		samples[i] *= scale
	}
	return samples
}

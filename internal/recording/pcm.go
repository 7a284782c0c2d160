package recording

import (
	"bytes"
	"encoding/binary"
	"math"
)

// pcmLevel is the mean absolute amplitude of little-endian s16 samples,
// normalised to [0,1]. A trailing odd byte is ignored.
func pcmLevel(frame []byte) float64 {
	samples := len(frame) / 2
	if samples == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < samples; i++ {
		s := int16(binary.LittleEndian.Uint16(frame[2*i:]))
		sum += math.Abs(float64(s))
	}
	level := sum / float64(samples) / 32768
	return math.Min(level, 1)
}

// pcmToWAV wraps raw 16-bit PCM audio in a WAV container
func pcmToWAV(rawAudio []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer

	const bitsPerSample = 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	dataSize := len(rawAudio)
	fileSize := 36 + dataSize

	// WAV header
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))            // fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))             // PCM format
	binary.Write(&buf, binary.LittleEndian, uint16(channels))      // number of channels
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))    // sample rate
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))      // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))    // block align
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample)) // bits per sample

	// data chunk
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(rawAudio)

	return buf.Bytes()
}

func float64Bits(f float64) uint64 { return math.Float64bits(f) }

func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }

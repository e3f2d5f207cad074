// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"encoding/binary"
	"math"
)

// WAV builds a canonical 44-byte-header PCM WAV file in memory.
// bitsPerSample may be 16, 24 or 32; samples are in [-1, 1] and interleaved.
func WAV(sampleRate, channels, bitsPerSample int, samples []float32) []byte {
	bytesPerSample := bitsPerSample / 8
	dataSize := len(samples) * bytesPerSample

	out := make([]byte, 44, 44+dataSize)
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[32:34], uint16(channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bitsPerSample))

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	scale := math.Pow(2, float64(bitsPerSample-1)) - 1
	word := make([]byte, 4)
	for _, s := range samples {
		v := int32(math.Round(float64(s) * scale))
		binary.LittleEndian.PutUint32(word, uint32(v))
		out = append(out, word[:bytesPerSample]...)
	}

	return out
}

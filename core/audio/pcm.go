package audio

import "encoding/binary"

// Int16ToBytes encodes samples as little-endian linear16 PCM. The returned
// slice never aliases samples, so callers may reuse their sample buffer.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

// BytesToInt16 decodes little-endian linear16 PCM into dst and returns the
// number of samples written. A trailing odd byte is ignored.
func BytesToInt16(dst []int16, pcm []byte) int {
	n := min(len(dst), len(pcm)/2)
	for i := range n {
		dst[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return n
}

package core

import "encoding/binary"

// Frame is one block of raw signed linear samples, little-endian 16 bit.
type Frame []byte

// Silence zeroes the payload in place. The frame is still relayed so the
// remote consumer keeps its cadence.
func (f Frame) Silence() {
	for i := range f {
		f[i] = 0
	}
}

// AdjustVolume applies a power-of-two gain shift to every sample. Positive
// levels boost (clamped to the int16 range), negative levels attenuate.
// Level 0 is a no-op.
func (f Frame) AdjustVolume(level int) {
	if level == 0 {
		return
	}
	for i := 0; i+1 < len(f); i += 2 {
		s := int32(int16(binary.LittleEndian.Uint16(f[i:])))
		if level > 0 {
			s <<= level
			if s > 32767 {
				s = 32767
			} else if s < -32768 {
				s = -32768
			}
		} else {
			s >>= -level
		}
		binary.LittleEndian.PutUint16(f[i:], uint16(int16(s)))
	}
}

package core

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func frameOf(samples ...int16) Frame {
	f := make(Frame, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(f[i*2:], uint16(s))
	}
	return f
}

func samplesOf(f Frame) []int16 {
	out := make([]int16, len(f)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(f[i*2:]))
	}
	return out
}

func TestAdjustVolumeBoost(t *testing.T) {
	f := frameOf(100, -100, 0)
	f.AdjustVolume(2)
	require.Equal(t, []int16{400, -400, 0}, samplesOf(f))
}

func TestAdjustVolumeAttenuate(t *testing.T) {
	f := frameOf(1024, -1024)
	f.AdjustVolume(-3)
	require.Equal(t, []int16{128, -128}, samplesOf(f))
}

func TestAdjustVolumeClampsAtInt16Range(t *testing.T) {
	f := frameOf(30000, -30000)
	f.AdjustVolume(4)
	require.Equal(t, []int16{32767, -32768}, samplesOf(f))
}

func TestAdjustVolumeZeroIsNoop(t *testing.T) {
	f := frameOf(123, -456)
	f.AdjustVolume(0)
	require.Equal(t, []int16{123, -456}, samplesOf(f))
}

func TestSilence(t *testing.T) {
	f := frameOf(123, -456, 789)
	f.Silence()
	require.Equal(t, []int16{0, 0, 0}, samplesOf(f))
}

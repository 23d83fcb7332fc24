// ABOUTME: Sample conversion helpers
// ABOUTME: Converts between integer, 24-bit packed and normalized float samples
package audio

import "math"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// Int16ToFloat converts a 16-bit sample to the [-1, 1) range
func Int16ToFloat(s int16) float64 {
	return float64(s) / 32768.0
}

// Int32ToFloat converts a full-scale 32-bit sample to the [-1, 1) range
func Int32ToFloat(s int32) float64 {
	return float64(s) / 2147483648.0
}

// Uint8ToFloat converts an unsigned 8-bit sample to the [-1, 1) range
func Uint8ToFloat(s uint8) float64 {
	return (float64(s) - 128.0) / 128.0
}

// FloatToInt16 converts a normalized sample to 16-bit with clipping
func FloatToInt16(x float64) int16 {
	v := math.Round(x * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// FloatToInt32 converts a normalized sample to full-scale 32-bit with clipping
func FloatToInt32(x float64) int32 {
	v := math.Round(x * 2147483648.0)
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// FloatToUint8 converts a normalized sample to unsigned 8-bit with clipping
func FloatToUint8(x float64) uint8 {
	v := math.Round(x*128.0) + 128.0
	if v > math.MaxUint8 {
		return math.MaxUint8
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

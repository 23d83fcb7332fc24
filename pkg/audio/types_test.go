// ABOUTME: Tests for audio types
// ABOUTME: Tests sample formats, layouts and sample conversion functions
package audio

import "testing"

func TestSampleFormatString(t *testing.T) {
	tests := []struct {
		name     string
		format   SampleFormat
		expected string
		bytes    int
	}{
		{"u8", FormatU8, "u8", 1},
		{"s16", FormatS16, "s16", 2},
		{"s16 planar", FormatS16P, "s16p", 2},
		{"s32", FormatS32, "s32", 4},
		{"float", FormatF32, "flt", 4},
		{"float planar", FormatF32P, "fltp", 4},
		{"double planar", FormatF64P, "dblp", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
			if got := tt.format.BytesPerSample(); got != tt.bytes {
				t.Errorf("expected %d bytes per sample, got %d", tt.bytes, got)
			}
		})
	}
}

func TestDefaultLayout(t *testing.T) {
	tests := []struct {
		channels int
		expected ChannelLayout
		name     string
	}{
		{1, LayoutMono, "mono"},
		{2, LayoutStereo, "stereo"},
		{3, Layout2Point1, "2.1"},
		{4, LayoutQuad, "quad"},
		{6, Layout5Point1, "5.1"},
		{8, Layout7Point1, "7.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := DefaultLayout(tt.channels)
			if layout != tt.expected {
				t.Errorf("expected layout %v, got %v", tt.expected, layout)
			}
			if layout.Channels() != tt.channels {
				t.Errorf("expected %d channels, got %d", tt.channels, layout.Channels())
			}
			if layout.String() != tt.name {
				t.Errorf("expected name %q, got %q", tt.name, layout.String())
			}
		})
	}
}

func TestDefaultLayoutUnusualCount(t *testing.T) {
	layout := DefaultLayout(7)
	if layout.Channels() != 7 {
		t.Errorf("expected 7 channels, got %d", layout.Channels())
	}

	if DefaultLayout(0) != LayoutUnknown {
		t.Error("expected unknown layout for zero channels")
	}
}

func TestFormatValidate(t *testing.T) {
	valid := Format{Sample: FormatS16, Layout: LayoutStereo, SampleRate: 44100}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid format, got %v", err)
	}

	invalid := []Format{
		{Sample: SampleFormat{}, Layout: LayoutStereo, SampleRate: 44100},
		{Sample: FormatS16, Layout: LayoutUnknown, SampleRate: 44100},
		{Sample: FormatS16, Layout: LayoutStereo, SampleRate: 0},
	}
	for _, f := range invalid {
		if err := f.Validate(); err == nil {
			t.Errorf("expected error for format %v", f)
		}
	}

	if got := valid.String(); got != "s16 stereo 44100Hz" {
		t.Errorf("unexpected format string %q", got)
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"positive", [3]byte{0x56, 0x34, 0x12}, 0x123456},
		{"negative", [3]byte{0x00, 0xFF, 0xFF}, -256},
		{"max positive", [3]byte{0xFF, 0xFF, 0x7F}, Max24Bit},
		{"max negative", [3]byte{0x00, 0x00, 0x80}, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleTo24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleTo24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestFloatToInt16Clipping(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"zero", 0, 0},
		{"half", 0.5, 16384},
		{"negative full scale", -1, -32768},
		{"positive clip", 1.5, 32767},
		{"negative clip", -2, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FloatToInt16(tt.input); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestRoundTripInt16(t *testing.T) {
	samples := []int16{0, 100, -100, 1000, -1000, 32767, -32768}

	for _, original := range samples {
		result := FloatToInt16(Int16ToFloat(original))
		if result != original {
			t.Errorf("round-trip failed: %d -> %d", original, result)
		}
	}
}

func TestUint8Conversion(t *testing.T) {
	if got := Uint8ToFloat(128); got != 0 {
		t.Errorf("expected 128 to be silence, got %f", got)
	}
	if got := FloatToUint8(0); got != 128 {
		t.Errorf("expected silence to be 128, got %d", got)
	}
	if got := FloatToUint8(2); got != 255 {
		t.Errorf("expected clip to 255, got %d", got)
	}
}

package encoder

import (
	"errors"
	"math"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    uint64
		expected string
	}{
		{"zero is the first symbol", 0, "D"},
		{"one", 1, "s"},
		{"last single digit", 65, "-"},
		{"base rolls over little-endian", 66, "Ds"},
		{"base plus one", 67, "ss"},
		{"max 2-char", 4355, "--"},
		{"first 3-char", 4356, "DDs"},
		{"large number", 12345, "~SU"},
		{"million", 1000000, "tH0~"},
		{"realistic ID", 123456789, "VEV36"},
		{"reserved literal", 358721, "urls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Encode(tt.input)
			if result != tt.expected {
				t.Errorf("Encode(%d) = %s; want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected uint64
	}{
		{"zero", "D", 0},
		{"one", "s", 1},
		{"last single digit", "-", 65},
		{"'Ds' is the base", "Ds", 66},
		{"large number", "~SU", 12345},
		{"million", "tH0~", 1000000},
		{"realistic ID", "VEV36", 123456789},
		{"reserved literal", "urls", 358721},
		{"trailing zero digits", "sDD", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode(%s) returned error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("Decode(%s) = %d; want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"symbol outside alphabet", "ab!"},
		{"plus prefix", "+abcde"},
		{"slash", "a/b"},
		{"overflows uint64", Encode(math.MaxUint64) + "s"},
		{"long overflow", "------------------------"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			if !errors.Is(err, ErrInvalidCode) {
				t.Errorf("Decode(%q) error = %v; want ErrInvalidCode", tt.input, err)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testNumbers := []uint64{
		0, 1, 10, 65, 66, 67, 100, 1000, 12345, 999999, 123456789,
		406067677556641, // 67^8
		math.MaxUint64 - 1,
		math.MaxUint64,
	}

	for _, num := range testNumbers {
		encoded := Encode(num)
		decoded, err := Decode(encoded)
		if err != nil {
			t.Errorf("Round trip failed: %d -> %s -> error %v", num, encoded, err)
			continue
		}
		if decoded != num {
			t.Errorf("Round trip failed: %d -> %s -> %d", num, encoded, decoded)
		}
	}

	// dense sweep over the first few digit lengths
	for num := uint64(0); num < 300000; num += 7 {
		decoded, err := Decode(Encode(num))
		if err != nil || decoded != num {
			t.Fatalf("Round trip failed for %d: got %d, err %v", num, decoded, err)
		}
	}
}

func TestEncode_NeverEmpty(t *testing.T) {
	for _, num := range []uint64{0, 1, 66, math.MaxUint64} {
		if Encode(num) == "" {
			t.Errorf("Encode(%d) returned empty string", num)
		}
	}
}

func TestEncodedLength(t *testing.T) {
	tests := []struct {
		input       uint64
		maxLength   int
		description string
	}{
		{65, 1, "max 1-char"},
		{66*66 - 1, 2, "max 2-char"},
		{66*66*66 - 1, 3, "max 3-char"},
		{1000000, 4, "1 million fits in 4"},
		{123456789, 5, "realistic ID fits in 5"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			encoded := Encode(tt.input)
			if len(encoded) > tt.maxLength {
				t.Errorf("Encode(%d) = %s (len=%d); want max length %d",
					tt.input, encoded, len(encoded), tt.maxLength)
			}
		})
	}
}

func TestAlphabet_UniqueSymbols(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < Base(); i++ {
		c := Symbol(i)
		if seen[c] {
			t.Fatalf("duplicate symbol %q in alphabet", c)
		}
		seen[c] = true
	}
	if seen['+'] {
		t.Error("alphabet must not contain the secret prefix '+'")
	}
}

package encoding

import (
	"bytes"
	"testing"
)

func TestShiftJISRoundTrip(t *testing.T) {
	tests := []string{"まばたき", "ｳｨﾝｸ２右", "Blink", "口角上げ", ""}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			got := ShiftJISToUTF8(UTF8ToShiftJIS(name))
			if got != name {
				t.Errorf("round trip = %q, want %q", got, name)
			}
		})
	}
}

func TestUTF8ToShiftJIS_Width(t *testing.T) {
	// Full-width kana are two bytes, half-width kana one.
	if got := len(UTF8ToShiftJIS("あ")); got != 2 {
		t.Errorf("len(あ) = %d, want 2", got)
	}
	if got := len(UTF8ToShiftJIS("ｳ")); got != 1 {
		t.Errorf("len(ｳ) = %d, want 1", got)
	}
}

func TestFixedString(t *testing.T) {
	field := UTF8ToFixedString("笑い", 15)
	if len(field) != 15 {
		t.Fatalf("field length = %d, want 15", len(field))
	}
	if !bytes.Equal(field[4:], make([]byte, 11)) {
		t.Errorf("padding not zeroed: %v", field[4:])
	}
	if got := FixedStringToUTF8(field); got != "笑い" {
		t.Errorf("FixedStringToUTF8 = %q, want 笑い", got)
	}
}

func TestUTF8ToFixedString_CutsAtCharacter(t *testing.T) {
	// Three two-byte characters do not fit in five bytes.
	field := UTF8ToFixedString("あいう", 5)
	if got := FixedStringToUTF8(field); got != "あい" {
		t.Errorf("got %q, want あい", got)
	}
	if field[4] != 0 {
		t.Errorf("byte 4 = %#x, want 0", field[4])
	}
}

func TestFixedStringToUTF8_TruncatedCharacter(t *testing.T) {
	data := append(UTF8ToShiftJIS("あ"), UTF8ToShiftJIS("い")[0])
	if got := FixedStringToUTF8(data); got != "あ" {
		t.Errorf("got %q, want あ", got)
	}
}

func TestFixedStringToUTF8_StopsAtNull(t *testing.T) {
	data := append(UTF8ToShiftJIS("目"), 0, 'x', 0)
	if got := FixedStringToUTF8(data); got != "目" {
		t.Errorf("got %q, want 目", got)
	}
}

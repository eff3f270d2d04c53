package rtstring

import (
	"testing"
	"unicode/utf8"
)

func TestSliceByteStringRoundTrip(t *testing.T) {
	cases := []string{"", "hello", "héllo wörld", "日本語", string([]byte{0xff, 0xfe})}
	for _, s := range cases {
		if got := SliceByteToString(StringToSliceByte(s)); got != s {
			t.Fatalf("round trip on %q produced %q", s, got)
		}
	}
}

func TestStringSliceRuneRoundTrip(t *testing.T) {
	rs := []rune{'a', 'b', 0x20AC, '日', '本', '語', 1}
	s := SliceRuneToString(rs)
	got := StringToSliceRune(s)
	if len(got) != len(rs) {
		t.Fatalf("StringToSliceRune length = %d, want %d", len(got), len(rs))
	}
	for i := range rs {
		if got[i] != rs[i] {
			t.Fatalf("rune %d: got %U, want %U", i, got[i], rs[i])
		}
	}
}

func TestEncodeDecodeRuneAgreesWithStdlib(t *testing.T) {
	runes := []rune{'a', 0x20AC, 0x10FFFF, 0, 0x7F, 0x80, 0xFFFF}
	for _, r := range runes {
		n, buf := EncodeRune(nil, r)
		wantBuf := make([]byte, utf8.RuneLen(r))
		wantN := utf8.EncodeRune(wantBuf, r)
		if n != wantN || string(buf) != string(wantBuf) {
			t.Fatalf("EncodeRune(%U) = (%d, %v), want (%d, %v)", r, n, buf, wantN, wantBuf)
		}
		gotR, gotN := DecodeRune(buf)
		if gotR != r || gotN != n {
			t.Fatalf("DecodeRune(encode(%U)) = (%U, %d), want (%U, %d)", r, gotR, gotN, r, n)
		}
	}
}

func TestEncodeRuneInvalidUsesReplacementChar(t *testing.T) {
	invalid := []rune{-1, 0xD800, 0x110000}
	for _, r := range invalid {
		n, buf := EncodeRune(nil, r)
		if n != 3 {
			t.Fatalf("EncodeRune(invalid %d): n = %d, want 3", r, n)
		}
		got, _ := DecodeRune(buf)
		if got != runeError {
			t.Fatalf("EncodeRune(invalid %d) decoded back to %U, want replacement char", r, got)
		}
	}
}

func TestDecodeRuneMalformedConsumesOneByte(t *testing.T) {
	r, n := DecodeRune([]byte{0xff})
	if r != runeError || n != 1 {
		t.Fatalf("DecodeRune(malformed) = (%U, %d), want (RuneError, 1)", r, n)
	}
}

func TestGrowCapacityDoublesBelowThreshold(t *testing.T) {
	if got := GrowCapacity(8, 9); got != 16 {
		t.Fatalf("GrowCapacity(8, 9) = %d, want 16", got)
	}
}

func TestGrowCapacityGrowsSlowerAboveThreshold(t *testing.T) {
	got := GrowCapacity(128, 129)
	if got <= 128 || got >= 256 {
		t.Fatalf("GrowCapacity(128, 129) = %d, want in (128, 256)", got)
	}
}

func TestGrowCapacityNeverUndershoots(t *testing.T) {
	for _, tc := range []struct{ oldCap, required int }{
		{0, 1}, {1, 100}, {64, 1000}, {1000, 1001},
	} {
		got := GrowCapacity(tc.oldCap, tc.required)
		if got < tc.required {
			t.Fatalf("GrowCapacity(%d, %d) = %d, want >= %d", tc.oldCap, tc.required, got, tc.required)
		}
	}
}

func TestCompareMatchesLexicalOrder(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", 0},
		{"abc", "abd", -1},
		{"abd", "abc", 1},
		{"ab", "abc", -1},
		{"abc", "ab", 1},
	}
	for _, tc := range cases {
		if got := Compare(tc.a, tc.b); got != tc.want {
			t.Fatalf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestConcat(t *testing.T) {
	if got := Concat("foo", "bar", "", "baz"); got != "foobarbaz" {
		t.Fatalf("Concat = %q, want %q", got, "foobarbaz")
	}
}

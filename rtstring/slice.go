package rtstring

// GrowCapacity implements spec.md §4's growslice capacity-growth rule
// ("Cap grows 2x below threshold 64, else +12.5%; new len = requiredCap"):
// given the old capacity and the capacity a caller actually needs,
// returns the new capacity append would allocate.
func GrowCapacity(oldCap, requiredCap int) int {
	if requiredCap > oldCap*2 {
		return requiredCap
	}
	const doublingThreshold = 64
	newCap := oldCap
	if oldCap < doublingThreshold {
		newCap = oldCap * 2
	} else {
		for newCap < requiredCap {
			newCap += newCap / 8 // +12.5% per spec.md §4's growslice rule
			if newCap <= oldCap {
				newCap = oldCap + 1 // guard oldCap==0 from looping forever
				break
			}
		}
	}
	if newCap < requiredCap {
		newCap = requiredCap
	}
	return newCap
}

// Concat implements spec.md's runtime.concatstrings: join parts into a
// single string with exactly one allocation-sized copy, the same
// single-pass-then-copy shape the real runtime's concatstrings uses
// to avoid one allocation per intermediate "+".
func Concat(parts ...string) string {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	buf := make([]byte, 0, total)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return string(buf)
}

// Compare implements runtime.cmpstring: -1, 0, or 1 by byte order,
// ties broken by length (the same semantics Go's built-in `<` on
// strings gives, spelled out as an explicit runtime primitive since
// spec.md lists "compare" alongside concat/slice-grow as a primitive
// the AOT compiler calls directly rather than inlining).
func Compare(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// SliceByteToString implements runtime.slicebytetostring.
func SliceByteToString(b []byte) string {
	return string(b)
}

// StringToSliceByte implements runtime.stringtoslicebyte.
func StringToSliceByte(s string) []byte {
	return []byte(s)
}

// StringToSliceRune implements runtime.stringtoslicerune: decode s one
// rune at a time via DecodeRune, collecting the decoded runes.
func StringToSliceRune(s string) []rune {
	rs := make([]rune, 0, len(s))
	b := []byte(s)
	for len(b) > 0 {
		r, n := DecodeRune(b)
		rs = append(rs, r)
		b = b[n:]
	}
	return rs
}

// SliceRuneToString implements runtime.slicerunetostring: encode each
// rune via EncodeRune into one backing buffer.
func SliceRuneToString(rs []rune) string {
	buf := make([]byte, 0, len(rs)*3)
	for _, r := range rs {
		_, buf = EncodeRune(buf, r)
	}
	return string(buf)
}

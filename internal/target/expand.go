package target

import (
	"iter"
	"strconv"
	"strings"
)

// Expand Lazily enumerates the literal addresses covered by a target.
// Only the last octet is ever enumerated; ranges never cross octet boundaries.
// Targets that are neither CIDR nor dash notation are yielded unchanged. For range
// targets only the matched a.b.c.d/n or a.b.c.d-n portion is used.
func Expand(raw string) iter.Seq[string] {
	if m := cidrPattern.FindString(raw); m != "" {
		return expandCIDR(m)
	}
	if m := dashRangePattern.FindString(raw); m != "" {
		return expandDash(m)
	}
	return func(yield func(string) bool) {
		yield(raw)
	}
}

// expandCIDR Walks the last octet of a.b.c.d/prefix.
// The prefix is clamped to /24../32 and /31 counts as /32. The end of the walk is the
// block size, or start XOR size when the start already exceeds the size.
func expandCIDR(raw string) iter.Seq[string] {
	return func(yield func(string) bool) {
		slash := strings.Index(raw, "/")
		octets := strings.Split(raw[:slash], ".")
		base := raw[:strings.LastIndex(raw[:slash], ".")+1]

		start, _ := strconv.Atoi(octets[len(octets)-1])
		given, _ := strconv.Atoi(raw[slash+1:])

		prefix := given
		if given < 24 {
			prefix = 24
		}
		size := 0
		if given <= 32 && given != 31 {
			size = 1 << (32 - prefix)
		}

		last := size
		if start > size {
			last = start ^ size
		}

		if start < last {
			for octet := start; octet < last; octet++ {
				if !yield(base + strconv.Itoa(octet)) {
					return
				}
			}
			return
		}
		yield(base + strconv.Itoa(start))
	}
}

// expandDash Walks a.b.c.d-n inclusive. When n is not above d only a.b.c.d is yielded.
func expandDash(raw string) iter.Seq[string] {
	return func(yield func(string) bool) {
		dash := strings.Index(raw, "-")
		address := raw[:dash]
		base := address[:strings.LastIndex(address, ".")+1]
		first := address[len(base):]

		start, _ := strconv.Atoi(first)
		end, _ := strconv.Atoi(raw[dash+1:])
		if end <= start {
			yield(base + first)
			return
		}

		for octet := start; octet <= end; octet++ {
			if !yield(base + strconv.Itoa(octet)) {
				return
			}
		}
	}
}

package vm

import "io"

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// scanDecimal reads an integer the way scanf("%d") does: leading
// whitespace, an optional sign, then decimal digits only. The first byte
// that is not part of the number is unread. Values wrap to 32 bits. ok is
// false when no digit was found.
func scanDecimal(r io.ByteScanner) (v uint32, ok bool) {
	b, err := r.ReadByte()
	for err == nil && isSpace(b) {
		b, err = r.ReadByte()
	}
	if err != nil {
		return 0, false
	}

	neg := false
	if b == '+' || b == '-' {
		neg = b == '-'
		if b, err = r.ReadByte(); err != nil {
			return 0, false
		}
	}
	for err == nil && b >= '0' && b <= '9' {
		v = v*10 + uint32(b-'0')
		ok = true
		b, err = r.ReadByte()
	}
	if err == nil {
		r.UnreadByte()
	}
	if neg {
		v = -v
	}
	return v, ok
}

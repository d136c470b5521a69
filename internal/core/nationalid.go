package core

import "strings"

// NationalIDDigits is the length of a complete CPF.
const NationalIDDigits = 11

// FormatNationalID strips everything but digits, keeps at most 11 and
// inserts the CPF separators for as many digits as are available:
//
//	"123"         -> "123."
//	"123456"      -> "123.456."
//	"12345678901" -> "123.456.789-01"
//
// Partial input formats partially, so the result can be fed back into the
// form while the user is still typing.
func FormatNationalID(raw string) string {
	d := digitsOnly(raw)
	if len(d) > NationalIDDigits {
		d = d[:NationalIDDigits]
	}
	switch n := len(d); {
	case n >= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	case n >= 6:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	case n >= 3:
		return d[:3] + "." + d[3:]
	default:
		return d
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

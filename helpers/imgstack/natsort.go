package imgstack

import "sort"

// sortNatural sorts s by key in natural order: runs of digits compare by
// numeric value so that "slice2" sorts before "slice10".
func sortNatural[T any](s []T, key func(T) string) {
	sort.SliceStable(s, func(i, j int) bool {
		return naturalLess(key(s[i]), key(s[j]))
	})
}

func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			na, ra := digitRun(a)
			nb, rb := digitRun(b)
			// Compare by magnitude ignoring leading zeros.
			ta, tb := trimZeros(na), trimZeros(nb)
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			a, b = ra, rb
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func digitRun(s string) (run, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}

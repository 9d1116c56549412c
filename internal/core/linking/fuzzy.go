package linking

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// WRatio is a weighted similarity in [0,1] between a mention and a KG label.
// It takes the best of a plain edit-distance ratio, token-order-insensitive ratios
// and, when the lengths differ a lot, substring (partial) ratios scaled down.
func WRatio(a, b string) float64 {
	p1, p2 := normalize(a), normalize(b)
	if p1 == "" || p2 == "" {
		return 0
	}

	base := ratio(p1, p2)
	l1, l2 := runeLen(p1), runeLen(p2)
	lenRatio := float64(max(l1, l2)) / float64(min(l1, l2))

	if lenRatio < 1.5 {
		return maxOf(base, tokenSortRatio(p1, p2)*0.95, tokenSetRatio(p1, p2)*0.95)
	}

	scale := 0.9
	if lenRatio >= 8 {
		scale = 0.6
	}
	return maxOf(
		base,
		partialRatio(p1, p2)*scale,
		partialRatio(sortTokens(p1), sortTokens(p2))*0.95*scale,
		partialTokenSetRatio(p1, p2)*0.95*scale,
	)
}

func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func runeLen(s string) int { return len([]rune(s)) }

func ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := runeLen(a), runeLen(b)
	if la == 0 || lb == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(max(la, lb))
}

// partialRatio is the best ratio of the shorter string against every equally long
// window of the longer one.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	best := 0.0
	s := string(short)
	for i := 0; i+len(short) <= len(long); i++ {
		r := ratio(s, string(long[i:i+len(short)]))
		if r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}

func sortTokens(s string) string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func tokenSets(a, b string) (sect, combined1, combined2 string) {
	set := func(s string) map[string]bool {
		m := map[string]bool{}
		for _, t := range strings.Fields(s) {
			m[t] = true
		}
		return m
	}
	sa, sb := set(a), set(b)
	var inter, onlyA, onlyB []string
	for t := range sa {
		if sb[t] {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range sb {
		if !sa[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect = strings.Join(inter, " ")
	combined1 = strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combined2 = strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))
	return sect, combined1, combined2
}

func tokenSetRatio(a, b string) float64 {
	sect, c1, c2 := tokenSets(a, b)
	best := ratio(c1, c2)
	if sect != "" {
		best = maxOf(best, ratio(sect, c1), ratio(sect, c2))
	}
	return best
}

func partialTokenSetRatio(a, b string) float64 {
	sect, c1, c2 := tokenSets(a, b)
	if sect != "" {
		// a shared token is a full partial match
		return 1
	}
	return partialRatio(c1, c2)
}

func maxOf(vals ...float64) float64 {
	m := 0.0
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}

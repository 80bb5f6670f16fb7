package monitor

import (
	"regexp"
	"strings"
	"sync"
)

var maskCache sync.Map

// HasWildcards reports whether mask contains * or ?
func HasWildcards(mask string) bool {
	return strings.ContainsAny(mask, "*?")
}

// MatchMask reports whether path ends with something matching mask. The
// comparison ignores case and treats \ and / alike; * matches any run of
// characters and ? a single one.
func MatchMask(path, mask string) bool {
	if mask == "" {
		return true
	}
	if len(path) < len(mask) {
		return false
	}

	m := strings.ToUpper(strings.ReplaceAll(mask, `\`, "/"))
	p := strings.ToUpper(strings.ReplaceAll(path, `\`, "/"))

	if !HasWildcards(m) {
		return strings.HasSuffix(p, m)
	}

	matches := maskRegexp(m).FindAllStringIndex(p, -1)
	if len(matches) == 0 {
		return false
	}
	rest := p[matches[len(matches)-1][1]:]
	return strings.Trim(rest, "*?") == ""
}

func maskRegexp(mask string) *regexp.Regexp {
	if re, ok := maskCache.Load(mask); ok {
		return re.(*regexp.Regexp)
	}
	var b strings.Builder
	for _, r := range mask {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	re := regexp.MustCompile(b.String())
	maskCache.Store(mask, re)
	return re
}

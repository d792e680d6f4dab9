// Package version implements the loose version handling used to pick and
// validate VHS releases. Upstream tags are semver-shaped ("v0.7.2") but the
// comparison tolerates any number of numeric segments and orders
// prereleases below releases.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// NormalizeTag strips a single leading "v" or "V" from a git tag.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if len(tag) > 1 && (tag[0] == 'v' || tag[0] == 'V') {
		return tag[1:]
	}
	return tag
}

var versionRe = regexp.MustCompile(`(\d+\.\d+\.\d+)`)

// FromOutput extracts the first dotted version from the output of a
// `--version` invocation. Returns "" when no version is present.
func FromOutput(out string) string {
	return versionRe.FindString(out)
}

type key struct {
	ok     bool
	core   []int
	hasPre bool
	pre    []string
}

func parse(s string) key {
	s = strings.TrimSpace(s)
	var k key

	// Only values starting with a digit are treated as version-like.
	if s == "" || !unicode.IsDigit(rune(s[0])) {
		return k
	}

	main := s
	pre := ""
	if i := strings.IndexByte(s, '-'); i >= 0 {
		main = s[:i]
		pre = s[i+1:]
		k.hasPre = true
	}

	parts := strings.Split(main, ".")
	k.core = make([]int, 0, len(parts))
	for _, p := range parts {
		// Digit runs only; Atoi alone would accept signs ("+2").
		v, ok := numericIdent(p)
		if !ok {
			return key{}
		}
		k.core = append(k.core, v)
	}

	if k.hasPre && pre != "" {
		k.pre = strings.Split(pre, ".")
	}

	k.ok = true
	return k
}

func numericIdent(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

// cmpPrerelease follows semver precedence: numeric identifiers sort below
// non-numeric ones, and a shorter identifier list sorts below a longer one
// sharing its prefix.
func cmpPrerelease(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		an, aNum := numericIdent(a[i])
		bn, bNum := numericIdent(b[i])
		switch {
		case aNum && bNum:
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
		case aNum:
			return -1
		case bNum:
			return 1
		default:
			if a[i] != b[i] {
				if a[i] < b[i] {
					return -1
				}
				return 1
			}
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func cmp(a, b key) int {
	n := len(a.core)
	if len(b.core) > n {
		n = len(b.core)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(a.core) {
			av = a.core[i]
		}
		if i < len(b.core) {
			bv = b.core[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	if a.hasPre != b.hasPre {
		if a.hasPre {
			return -1
		}
		return 1
	}
	if !a.hasPre {
		return 0
	}
	return cmpPrerelease(a.pre, b.pre)
}

// Greater reports whether a should sort ahead of b in descending order.
// Version-like values sort ahead of anything else; two non-version-like
// values fall back to lexical descending order.
func Greater(a, b string) bool {
	ka := parse(a)
	kb := parse(b)
	if ka.ok != kb.ok {
		return ka.ok
	}
	if !ka.ok {
		return a > b
	}
	return cmp(ka, kb) > 0
}

// Range is a half-open version interval [Min, Max). An empty Max means
// unbounded. Bounds are given without the leading "v".
type Range struct {
	Min string
	Max string
}

// Validate checks that both bounds parse and that the interval is not empty.
func (r Range) Validate() error {
	kmin := parse(r.Min)
	if !kmin.ok {
		return fmt.Errorf("invalid minimal version %q", r.Min)
	}
	if r.Max == "" {
		return nil
	}
	kmax := parse(r.Max)
	if !kmax.ok {
		return fmt.Errorf("invalid maximal version %q", r.Max)
	}
	if cmp(kmax, kmin) <= 0 {
		return fmt.Errorf("minimal version is not below maximal version: %s >= %s", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether v falls inside the interval. Non-version-like
// values are never contained.
func (r Range) Contains(v string) bool {
	kv := parse(NormalizeTag(v))
	if !kv.ok {
		return false
	}
	if cmp(kv, parse(r.Min)) < 0 {
		return false
	}
	if r.Max != "" && cmp(kv, parse(r.Max)) >= 0 {
		return false
	}
	return true
}

// String renders the interval for user-facing requirement messages,
// e.g. "version 0.5.0 or newer" or "a version between 0.5.0 and 0.9.0".
func (r Range) String() string {
	if r.Max != "" {
		return fmt.Sprintf("a version between %s and %s", r.Min, r.Max)
	}
	return fmt.Sprintf("version %s or newer", r.Min)
}

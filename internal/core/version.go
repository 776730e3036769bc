package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"
)

// VersionComparator returns -1, 0, or 1 comparing two version strings.
type VersionComparator func(a string, b string) int

const (
	VersionSchemeNative = "native"
	VersionSchemeStrict = "strict"
)

// ComparatorForScheme returns the comparator configured by name. The
// strict scheme parses versions with go-deb-version and falls back to the
// native ordering for strings that library rejects.
func ComparatorForScheme(scheme string) (VersionComparator, error) {
	switch strings.TrimSpace(scheme) {
	case "", VersionSchemeNative:
		return CompareVersions, nil
	case VersionSchemeStrict:
		cache := newDebVersionCache()
		return cache.compare, nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown version scheme %q", scheme))
	}
}

// CompareVersions orders two Debian version strings of the form
// [epoch:]upstream[-revision].
func CompareVersions(a string, b string) int {
	epochA, upstreamA, revisionA := splitVersion(a)
	epochB, upstreamB, revisionB := splitVersion(b)
	if c := compareEpochs(epochA, epochB); c != 0 {
		return c
	}
	if c := compareVersionPart(upstreamA, upstreamB); c != 0 {
		return c
	}
	return compareVersionPart(revisionA, revisionB)
}

// splitVersion separates the epoch (digits before the first colon) and the
// revision (text after the last hyphen). An absent epoch is returned as "".
func splitVersion(version string) (string, string, string) {
	epoch := ""
	rest := version
	if idx := strings.Index(version, ":"); idx > 0 && isDigits(version[:idx]) {
		epoch = version[:idx]
		rest = version[idx+1:]
	}
	upstream := rest
	revision := ""
	if idx := strings.LastIndex(rest, "-"); idx >= 0 {
		upstream = rest[:idx]
		revision = rest[idx+1:]
	}
	return epoch, upstream, revision
}

// compareEpochs treats an absent epoch as lower than any present one.
func compareEpochs(a string, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	default:
		return compareDigitRuns(a, b)
	}
}

// versionRun is one (digit-run, non-digit-run) pair.
type versionRun struct {
	digits string
	rest   string
}

// splitDigitRuns decomposes s into pairs that always start with a possibly
// empty digit run: "34.3.2" -> [("34","."), ("3","."), ("2","")].
func splitDigitRuns(s string) []versionRun {
	var runs []versionRun
	i := 0
	for i < len(s) {
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		k := j
		for k < len(s) && !isDigit(s[k]) {
			k++
		}
		runs = append(runs, versionRun{digits: s[i:j], rest: s[j:k]})
		i = k
	}
	return runs
}

func compareVersionPart(a string, b string) int {
	runsA := splitDigitRuns(a)
	runsB := splitDigitRuns(b)
	n := len(runsA)
	if len(runsB) > n {
		n = len(runsB)
	}
	for i := 0; i < n; i++ {
		var ra, rb versionRun
		if i < len(runsA) {
			ra = runsA[i]
		}
		if i < len(runsB) {
			rb = runsB[i]
		}
		if c := compareDigitRuns(ra.digits, rb.digits); c != 0 {
			return c
		}
		if c := compareNonDigitRuns(ra.rest, rb.rest); c != 0 {
			return c
		}
	}
	return 0
}

// compareDigitRuns compares digit strings numerically without converting
// them, so runs of any length are ordered correctly. Empty equals zero.
func compareDigitRuns(a string, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return sign(strings.Compare(a, b))
}

func compareNonDigitRuns(a string, b string) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		wa := weightAt(a, i)
		wb := weightAt(b, i)
		if wa != wb {
			if wa < wb {
				return -1
			}
			return 1
		}
	}
	return 0
}

// weightAt returns the ordering weight of s[i]: '~' sorts before the end of
// the run, letters by code, and every other character after all letters.
func weightAt(s string, i int) int {
	if i >= len(s) {
		return 0
	}
	c := s[i]
	switch {
	case c == '~':
		return -1
	case isLetter(c):
		return int(c)
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// debVersionCache memoizes parsed go-deb-version values for the strict
// scheme. A nil entry records a string the library rejected.
type debVersionCache struct {
	mu     sync.Mutex
	parsed map[string]*debversion.Version
}

func newDebVersionCache() *debVersionCache {
	return &debVersionCache{parsed: map[string]*debversion.Version{}}
}

func (c *debVersionCache) lookup(value string) *debversion.Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	if parsed, ok := c.parsed[value]; ok {
		return parsed
	}
	var entry *debversion.Version
	if parsed, err := debversion.NewVersion(value); err == nil {
		entry = &parsed
	}
	c.parsed[value] = entry
	return entry
}

func (c *debVersionCache) compare(a string, b string) int {
	va := c.lookup(a)
	vb := c.lookup(b)
	if va == nil || vb == nil {
		return CompareVersions(a, b)
	}
	return sign(va.Compare(*vb))
}

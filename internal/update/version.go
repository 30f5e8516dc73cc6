package update

import (
	"regexp"
	"strconv"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
	"golang.org/x/mod/semver"
)

// timestampRe matches the nightly scheme: YYYY.MM.DD.HHMM+shorthash,
// e.g. "2025.07.20.1542+8f3ab12". The hash is 7 or 8 lowercase hex chars.
var timestampRe = regexp.MustCompile(`^(\d{4})\.(\d{2})\.(\d{2})\.(\d{4})\+([a-f0-9]{7,8})$`)

// IsTimestampVersion reports whether v (optionally "v"-prefixed) uses
// the nightly timestamp scheme.
func IsTimestampVersion(v string) bool {
	return timestampRe.MatchString(strings.TrimPrefix(v, "v"))
}

// IsNewer reports whether candidate denotes a newer build than current.
// Identical strings are never newer. When both sides use the timestamp
// scheme the date-time fields are compared numerically, with the commit
// hash as a lexical tie-break. Otherwise both are treated as dotted
// versions: strict semver when both qualify, a loose parse as fallback.
// Unparseable pairs fall back to plain inequality so a feed that moves
// to a new scheme still triggers an update.
func IsNewer(current, candidate string) bool {
	cur := strings.TrimPrefix(strings.TrimSpace(current), "v")
	cand := strings.TrimPrefix(strings.TrimSpace(candidate), "v")
	if cur == cand {
		return false
	}

	curTS := timestampRe.FindStringSubmatch(cur)
	candTS := timestampRe.FindStringSubmatch(cand)
	if curTS != nil && candTS != nil {
		return timestampNewer(curTS, candTS)
	}
	if curTS != nil || candTS != nil {
		// Mixed schemes: the feed switched release styles. Treat any
		// different version as an update rather than guessing an order.
		return true
	}

	cv, candv := "v"+cur, "v"+cand
	if semver.IsValid(cv) && semver.IsValid(candv) {
		return semver.Compare(candv, cv) > 0
	}

	curLoose, err1 := masterminds.NewVersion(cur)
	candLoose, err2 := masterminds.NewVersion(cand)
	if err1 == nil && err2 == nil {
		return candLoose.GreaterThan(curLoose)
	}

	// Dev or otherwise unparseable current build: offer the update.
	return true
}

// timestampNewer compares two timestampRe submatch slices. The four
// numeric groups order the build; a shared timestamp falls back to a
// lexical compare of the hash groups so the answer is deterministic.
func timestampNewer(cur, cand []string) bool {
	for i := 1; i <= 4; i++ {
		c, _ := strconv.Atoi(cur[i])
		n, _ := strconv.Atoi(cand[i])
		if n != c {
			return n > c
		}
	}
	return cand[5] > cur[5]
}

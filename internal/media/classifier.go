// Package media decides whether a filename is a supported media file and
// matches filenames to vendor codes by a longest-prefix rule.
package media

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var mediaExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"bmp": true, "webp": true, "mov": true, "mp4": true,
}

// photoSuffixPattern matches the remainder after a vendor-code prefix:
// an underscore or dash, a photo number, and an extension.
var photoSuffixPattern = regexp.MustCompile(`^[_-](\d+)\.\w+$`)

// IsMedia reports whether the filename has a supported media extension.
func IsMedia(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return mediaExtensions[ext]
}

// Result classifies the outcome of matching one filename against the
// candidate codes. NoPrefix and PatternMismatch are kept distinct so callers
// can log "wrong pattern" separately from "no code matched".
type Result int

const (
	Matched Result = iota
	NoPrefix
	PatternMismatch
)

// Match is a successful classification. VendorCode keeps the candidate's
// original spelling, not the lowercased form used for matching.
type Match struct {
	VendorCode  string
	PhotoNumber uint
}

// Classify decomposes a filename into (vendor code, photo number).
//
// Matching is case-insensitive. Among the candidate codes that prefix the
// filename the longest wins; on equal length a code matching the full file
// stem wins, then the lexicographically smallest, so the result never
// depends on candidate order. The remainder after the prefix must be either
// "_N.ext" / "-N.ext" (photo number N) or ".ext" (photo number 1); anything
// else is a PatternMismatch.
func Classify(name string, codes []string) (Match, Result) {
	lower := strings.ToLower(name)
	stem := strings.TrimSuffix(lower, strings.ToLower(filepath.Ext(name)))

	code := pickPrefix(lower, stem, codes)
	if code == "" {
		return Match{}, NoPrefix
	}

	remainder := strings.TrimPrefix(lower, strings.ToLower(code))
	if caps := photoSuffixPattern.FindStringSubmatch(remainder); caps != nil {
		n, err := strconv.ParseUint(caps[1], 10, 32)
		if err != nil || n == 0 {
			n = 1
		}
		return Match{VendorCode: code, PhotoNumber: uint(n)}, Matched
	}
	if strings.HasPrefix(remainder, ".") {
		return Match{VendorCode: code, PhotoNumber: 1}, Matched
	}
	return Match{VendorCode: code}, PatternMismatch
}

// pickPrefix selects the winning candidate code for a lowercased filename.
func pickPrefix(lower, stem string, codes []string) string {
	bestLen := 0
	for _, c := range codes {
		lc := strings.ToLower(strings.TrimSpace(c))
		if lc == "" || !strings.HasPrefix(lower, lc) {
			continue
		}
		if len(lc) > bestLen {
			bestLen = len(lc)
		}
	}
	if bestLen == 0 {
		return ""
	}

	ties := make([]string, 0, 1)
	for _, c := range codes {
		c = strings.TrimSpace(c)
		lc := strings.ToLower(c)
		if len(lc) == bestLen && strings.HasPrefix(lower, lc) {
			ties = append(ties, c)
		}
	}
	if len(ties) == 1 {
		return ties[0]
	}
	sort.Strings(ties)
	for _, c := range ties {
		if strings.ToLower(c) == stem {
			return c
		}
	}
	return ties[0]
}

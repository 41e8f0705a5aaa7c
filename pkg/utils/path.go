package utils

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizationForm selects the Unicode normalization applied to request
// paths before lookup. Normalizing prevents visually identical names from
// resolving to different tree entries.
type NormalizationForm int

const (
	NormNone NormalizationForm = iota
	NormNFC
	NormNFD
	NormNFKC
	NormNFKD
)

// String returns the lower-case name of the normalization form
func (f NormalizationForm) String() string {
	switch f {
	case NormNone:
		return "none"
	case NormNFC:
		return "nfc"
	case NormNFD:
		return "nfd"
	case NormNFKC:
		return "nfkc"
	case NormNFKD:
		return "nfkd"
	default:
		return "unknown"
	}
}

// ParseNormalizationForm parses a normalization form name. The empty string
// means no normalization.
func ParseNormalizationForm(s string) (NormalizationForm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NormNone, nil
	case "nfc":
		return NormNFC, nil
	case "nfd":
		return NormNFD, nil
	case "nfkc":
		return NormNFKC, nil
	case "nfkd":
		return NormNFKD, nil
	default:
		return NormNone, fmt.Errorf("invalid normalization form: %s", s)
	}
}

// apply runs the selected Unicode normalization over s
func (f NormalizationForm) apply(s string) string {
	switch f {
	case NormNFC:
		return norm.NFC.String(s)
	case NormNFD:
		return norm.NFD.String(s)
	case NormNFKC:
		return norm.NFKC.String(s)
	case NormNFKD:
		return norm.NFKD.String(s)
	default:
		return s
	}
}

// CanonicalPath reduces an arbitrary request path to its canonical
// lookup-key form:
//
//  1. apply the configured Unicode normalization form
//  2. remove embedded NUL bytes
//  3. resolve the path as absolute so "." and ".." segments and repeated
//     separators collapse and traversal cannot escape the root
//  4. strip the leading separator
//
// The root directory canonicalizes to the empty string. CanonicalPath is
// idempotent: feeding its output back in returns the same string.
//
// Example:
//
//	CanonicalPath("/a/../a/x.txt", NormNone) == "a/x.txt"
//	CanonicalPath("/test\x00.txt", NormNone) == "test.txt"
func CanonicalPath(p string, form NormalizationForm) string {
	p = form.apply(p)
	if strings.ContainsRune(p, 0) {
		p = strings.ReplaceAll(p, "\x00", "")
	}
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// SplitBase returns the final element of a canonical path. The root ("")
// splits to itself.
func SplitBase(canonical string) string {
	if canonical == "" {
		return ""
	}
	if i := strings.LastIndexByte(canonical, '/'); i >= 0 {
		return canonical[i+1:]
	}
	return canonical
}

package core

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	hexColorPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	filenameSpaces  = regexp.MustCompile(`[\s/\\]+`)
	sizeUnits       = []string{"B", "KB", "MB", "GB"}
)

// FormatSize renders a byte count with 1024-based units and at most one
// decimal, e.g. "1.5 MB" or "2 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return strconv.FormatInt(bytes, 10) + " B"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	rounded := float64(int64(v*10+0.5)) / 10
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[i]
}

// NormalizeHex parses a 3 or 6 digit hex color with or without the leading
// '#' and returns it as upper-case "#RRGGBB".
func NormalizeHex(s string) (string, bool) {
	m := hexColorPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	hex := m[1]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	return "#" + strings.ToUpper(hex), true
}

// Filename suggests a download name for the exported source: the source
// name with whitespace runs replaced by '-', lower-cased, accents removed.
func Filename(src Source) string {
	name := src.Name
	if name == "" {
		name = "source"
	}
	name += ".json"

	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, name); err == nil {
		name = folded
	}
	return strings.ToLower(filenameSpaces.ReplaceAllString(name, "-"))
}

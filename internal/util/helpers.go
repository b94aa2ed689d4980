package util

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const stampLayout = "20060102_150405"

// Timestamped returns the base of name prefixed with the current time and a
// random tag, so uploads of one file in the same second get distinct names.
func Timestamped(name string) string {
	return stampAt(name, time.Now(), uuid.NewString()[:8])
}

func stampAt(name string, t time.Time, tag string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		base = "upload"
	}
	return t.Format(stampLayout) + "_" + tag + "__" + strings.ReplaceAll(base, " ", "_")
}

func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

package pdf

import (
	"fmt"
	"math"
	"strings"

	"rsc.io/pdf"
)

// ExtractText returns the text of every page, pages separated by newlines.
func ExtractText(path string) (text string, err error) {
	// rsc.io/pdf panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf %s: %v", path, r)
		}
	}()

	r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		sb.WriteString(pageText(p.Content().Text))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// pageText joins positioned glyphs back into lines. rsc.io/pdf drops space
// glyphs, so word breaks come from the gap between neighbouring glyphs.
func pageText(glyphs []pdf.Text) string {
	var sb strings.Builder
	for i, t := range glyphs {
		s := strings.ReplaceAll(t.S, "\x00", "")
		if i > 0 {
			sb.WriteString(separator(glyphs[i-1], t))
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func separator(prev, cur pdf.Text) string {
	size := max(prev.FontSize, cur.FontSize, 1)
	if math.Abs(cur.Y-prev.Y) > size/2 {
		return "\n"
	}
	gap := cur.X - (prev.X + prev.W)
	if gap > size*0.15 || gap < -size {
		return " "
	}
	return ""
}

func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.Join(strings.Fields(s), " ")
}

// ChunkByWords splits text into windows of size words, each overlapping the
// previous one by overlap words.
func ChunkByWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if size <= 0 {
		size = 200
	}
	if overlap < 0 {
		overlap = 0
	}
	var out []string
	for i := 0; i < len(words); i += max(1, size-overlap) {
		end := min(i+size, len(words))
		out = append(out, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}

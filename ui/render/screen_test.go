package render

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// screen is a minimal terminal model covering the control sequences the
// engine emits. Output newlines behave as CR LF, as with a tty in cooked mode.
type screen struct {
	width   int
	rows    [][]rune
	row     int
	col     int
	pending bool
}

func newScreen(width int) *screen {
	return &screen{width: width}
}

func (s *screen) Write(p []byte) (int, error) {
	s.feed(string(p))
	return len(p), nil
}

func (s *screen) ensureRow() {
	for len(s.rows) <= s.row {
		s.rows = append(s.rows, []rune(strings.Repeat(" ", s.width)))
	}
}

func (s *screen) feed(data string) {
	runes := []rune(data)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == 0x1b && i+1 < len(runes) && runes[i+1] == '[':
			j := i + 2
			for j < len(runes) && (runes[j] >= '0' && runes[j] <= '9' || runes[j] == ';') {
				j++
			}
			if j >= len(runes) {
				return
			}
			s.csi(string(runes[i+2:j]), runes[j])
			i = j
		case r == '\n':
			s.row++
			s.col = 0
			s.pending = false
		case r == '\r':
			s.col = 0
			s.pending = false
		default:
			s.put(r)
		}
	}
}

func (s *screen) csi(params string, final rune) {
	n := 1
	if params != "" {
		if v, err := strconv.Atoi(params); err == nil {
			n = v
		}
	}
	switch final {
	case 'A':
		s.row -= n
		if s.row < 0 {
			s.row = 0
		}
		s.pending = false
	case 'C':
		s.col += n
		if s.col > s.width-1 {
			s.col = s.width - 1
		}
		s.pending = false
	case 'K':
		if params == "2" {
			s.ensureRow()
			s.rows[s.row] = []rune(strings.Repeat(" ", s.width))
		}
	}
}

func (s *screen) put(r rune) {
	w := runewidth.RuneWidth(r)
	if s.pending || s.col+w > s.width {
		s.row++
		s.col = 0
		s.pending = false
	}
	s.ensureRow()
	s.rows[s.row][s.col] = r
	for k := 1; k < w; k++ {
		s.rows[s.row][s.col+k] = 0
	}
	s.col += w
	if s.col >= s.width {
		s.col = s.width - 1
		s.pending = true
	}
}

// line returns row i without trailing blanks.
func (s *screen) line(i int) string {
	if i >= len(s.rows) {
		return ""
	}
	var b strings.Builder
	for _, r := range s.rows[i] {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func (s *screen) lines() []string {
	out := make([]string, len(s.rows))
	for i := range s.rows {
		out[i] = s.line(i)
	}
	return out
}

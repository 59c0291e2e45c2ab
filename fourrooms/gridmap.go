package fourrooms

import (
	"strings"
	"unicode/utf8"
)

// FourRoomsMap is the default 13x13 layout: four rooms joined by single cell doorways.
// The first line is discarded when parsing.
const FourRoomsMap = `
xxxxxxxxxxxxx
x     x     x
x     x     x
x           x
x     x     x
x     x     x
xx xxxx     x
x     xxx xxx
x     x     x
x     x     x
x           x
x     x     x
xxxxxxxxxxxxx`

// Position is a (row, col) cell coordinate
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) Add(o Position) Position {
	return Position{Row: p.Row + o.Row, Col: p.Col + o.Col}
}

// GridMap is an immutable passability grid together with its open cells in row-major order.
type GridMap struct {
	passable [][]bool
	open     []Position
	index    map[Position]int
	rows     int
	cols     int
}

// ParseMap builds a GridMap from text. The first line is dropped, every following line
// is a row where a space is an open cell and anything else is a wall.
// Rows must all have the same length and at least two cells must be open.
func ParseMap(text string) (*GridMap, error) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return nil, configErrorf("map has no rows")
	}
	lines = lines[1:]
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, configErrorf("map has no rows")
	}

	// cells are characters, not bytes
	cols := utf8.RuneCountInString(lines[0])
	passable := make([][]bool, len(lines))
	for r, line := range lines {
		cells := []rune(line)
		if len(cells) != cols {
			return nil, configErrorf("map row %d has length %d, expected %d", r, len(cells), cols)
		}
		passable[r] = make([]bool, cols)
		for c, cell := range cells {
			passable[r][c] = cell == ' '
		}
	}
	return newGridMap(passable)
}

// MustParseMap is like ParseMap but panics on error
func MustParseMap(text string) *GridMap {
	m, err := ParseMap(text)
	if err != nil {
		panic(err)
	}
	return m
}

func newGridMap(passable [][]bool) (*GridMap, error) {
	m := &GridMap{
		passable: passable,
		open:     make([]Position, 0),
		index:    make(map[Position]int),
		rows:     len(passable),
	}
	if m.rows > 0 {
		m.cols = len(passable[0])
	}
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if passable[r][c] {
				p := Position{Row: r, Col: c}
				m.index[p] = len(m.open)
				m.open = append(m.open, p)
			}
		}
	}
	if len(m.open) == 0 {
		return nil, configErrorf("map has no open cells")
	}
	if len(m.open) < 2 {
		return nil, configErrorf("map needs at least two open cells, has %d", len(m.open))
	}
	return m, nil
}

func (m *GridMap) Rows() int { return m.rows }

func (m *GridMap) Cols() int { return m.cols }

// Passable reports whether p is an open cell. Cells outside the grid are walls.
func (m *GridMap) Passable(p Position) bool {
	if p.Row < 0 || p.Row >= m.rows || p.Col < 0 || p.Col >= m.cols {
		return false
	}
	return m.passable[p.Row][p.Col]
}

// OpenCells returns a copy of the open cells in row-major order
func (m *GridMap) OpenCells() []Position {
	out := make([]Position, len(m.open))
	copy(out, m.open)
	return out
}

func (m *GridMap) NumOpen() int {
	return len(m.open)
}

// Cell returns the i-th open cell
func (m *GridMap) Cell(i int) Position {
	return m.open[i]
}

// IndexOf returns the index of p among the open cells
func (m *GridMap) IndexOf(p Position) (int, bool) {
	i, ok := m.index[p]
	return i, ok
}

// Lines renders the grid back to rows of ' ' (open) and 'x' (wall)
func (m *GridMap) Lines() []string {
	out := make([]string, m.rows)
	for r := 0; r < m.rows; r++ {
		var b strings.Builder
		for c := 0; c < m.cols; c++ {
			if m.passable[r][c] {
				b.WriteByte(' ')
			} else {
				b.WriteByte('x')
			}
		}
		out[r] = b.String()
	}
	return out
}

// Text is the inverse of ParseMap
func (m *GridMap) Text() string {
	return "\n" + strings.Join(m.Lines(), "\n")
}

var defaultMap = MustParseMap(FourRoomsMap)

// DefaultMap returns the shared four-rooms map
func DefaultMap() *GridMap {
	return defaultMap
}

package fourrooms

import (
	"bufio"
	"io"
)

// Render draws the grid: "A " agent, "G " goal, "X " wall, blank for open cells
func (e *Env) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for r := 0; r < e.grid.Rows(); r++ {
		for c := 0; c < e.grid.Cols(); c++ {
			p := Position{Row: r, Col: c}
			switch {
			case e.pos != nil && *e.pos == p:
				bw.WriteString("A ")
			case e.goal != nil && *e.goal == p:
				bw.WriteString("G ")
			case e.grid.Passable(p):
				bw.WriteString("  ")
			default:
				bw.WriteString("X ")
			}
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

package viewport

// Grid splits the usable area into cells for n windows, filled row by row.
// Columns are added before rows, so 3 windows get a 2x2 grid.
func (v Viewport) Grid(n int) []Rect {
	if n <= 0 {
		return nil
	}

	cols, rows := 0, 0
	for cols*rows < n {
		cols++
		if cols*rows >= n {
			break
		}
		rows++
	}

	u := v.Usable()
	cw, ch := u.Width/float64(cols), u.Height/float64(rows)

	cells := make([]Rect, 0, n)
	for i := 0; i < n; i++ {
		row, col := i/cols, i%cols
		cells = append(cells, Rect{
			X:      u.X + float64(col)*cw,
			Y:      u.Y + float64(row)*ch,
			Width:  cw,
			Height: ch,
		})
	}

	return cells
}

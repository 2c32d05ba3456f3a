package world

import "math"

// TraceResult describes the outcome of sweeping a movement segment across the
// grid.
type TraceResult struct {
	// HitSolid is true when the sweep met a dirt or rock cell before the end
	// of the segment. Cell identifies it.
	HitSolid bool
	Cell     Point

	// OutOfBounds is true when the segment left the grid before hitting
	// anything solid.
	OutOfBounds bool

	// X, Y is the furthest open position reached along the segment: the end
	// point when nothing was hit, otherwise a point just short of the
	// blocking cell or boundary.
	X, Y float64
}

// Trace sweeps the segment (x0,y0)→(x1,y1) using Amanatides & Woo grid
// traversal and reports the first solid cell hit, if any. Positions are in
// cell units; the starting cell is never reported as a hit.
func (g *Grid) Trace(x0, y0, x1, y1 float64) TraceResult {
	dx := x1 - x0
	dy := y1 - y0
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return TraceResult{X: x0, Y: y0}
	}

	cx := int(math.Floor(x0))
	cy := int(math.Floor(y0))
	endCX := int(math.Floor(x1))
	endCY := int(math.Floor(y1))

	stepX, stepY := 0, 0
	tMaxX, tMaxY := math.Inf(1), math.Inf(1)
	tDeltaX, tDeltaY := math.Inf(1), math.Inf(1)

	if dx > 0 {
		stepX = 1
		tMaxX = (math.Floor(x0) + 1 - x0) / dx
		tDeltaX = 1 / dx
	} else if dx < 0 {
		stepX = -1
		tMaxX = (x0 - math.Floor(x0)) / -dx
		tDeltaX = -1 / dx
	}
	if dy > 0 {
		stepY = 1
		tMaxY = (math.Floor(y0) + 1 - y0) / dy
		tDeltaY = 1 / dy
	} else if dy < 0 {
		stepY = -1
		tMaxY = (y0 - math.Floor(y0)) / -dy
		tDeltaY = -1 / dy
	}

	// backoff pulls the reported stop position slightly inside the previous
	// open cell so a stopped ant does not sit exactly on the boundary.
	const backoff = 1e-3

	t := 0.0
	for {
		if cx == endCX && cy == endCY {
			return TraceResult{X: x1, Y: y1}
		}

		prevT := t
		if tMaxX < tMaxY {
			t = tMaxX
			tMaxX += tDeltaX
			cx += stepX
		} else {
			t = tMaxY
			tMaxY += tDeltaY
			cy += stepY
		}
		if t > 1 {
			// Numerical edge: segment end reached without crossing into the
			// end cell (end point sits on a boundary). Treat as clean arrival.
			return TraceResult{X: x1, Y: y1}
		}

		stop := prevT
		if t-backoff > stop {
			stop = t - backoff
		}
		sx := x0 + dx*stop
		sy := y0 + dy*stop

		if !g.InBounds(cx, cy) {
			return TraceResult{OutOfBounds: true, X: sx, Y: sy}
		}
		if g.Solid(cx, cy) {
			return TraceResult{
				HitSolid: true,
				Cell:     Point{X: cx, Y: cy},
				X:        sx,
				Y:        sy,
			}
		}
	}
}

// Package world provides the terrain grid, pheromone fields, and derived
// spatial structures (home-distance BFS, food index, scent overlay) that the
// colony simulation runs on.
package world

// CellType classifies one terrain unit.
type CellType uint8

const (
	CellAir  CellType = iota
	CellDirt           // Diggable; carries a DirtType and health
	CellFood           // Walkable; consumed by foraging ants
	CellRock           // Solid and undiggable
)

// CellTypeName returns a display name for a cell type.
func CellTypeName(t CellType) string {
	switch t {
	case CellAir:
		return "air"
	case CellDirt:
		return "dirt"
	case CellFood:
		return "food"
	case CellRock:
		return "rock"
	default:
		return "unknown"
	}
}

// DirtType determines how much digging a dirt cell withstands.
type DirtType uint8

const (
	DirtSoftSand DirtType = iota
	DirtSand
	DirtPackedEarth
	DirtClay
	DirtBedrock
)

// dirtMaxHealth is the starting health per dirt hardness.
var dirtMaxHealth = [...]float32{
	DirtSoftSand:    12,
	DirtSand:        25,
	DirtPackedEarth: 55,
	DirtClay:        110,
	DirtBedrock:     900,
}

// MaxHealth returns the full health of a dirt type.
func (d DirtType) MaxHealth() float32 {
	if int(d) >= len(dirtMaxHealth) {
		return dirtMaxHealth[DirtBedrock]
	}
	return dirtMaxHealth[d]
}

// DirtTypeName returns a display name for a dirt hardness.
func DirtTypeName(d DirtType) string {
	switch d {
	case DirtSoftSand:
		return "soft sand"
	case DirtSand:
		return "sand"
	case DirtPackedEarth:
		return "packed earth"
	case DirtClay:
		return "clay"
	case DirtBedrock:
		return "bedrock"
	default:
		return "unknown"
	}
}

// Point is an integer grid coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

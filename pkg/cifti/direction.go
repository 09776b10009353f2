package cifti

import "fmt"

// Direction selects one of the two index maps of a Matrix.
//
// AlongRow is the map that applies while walking along a row, so it indexes
// columns. AlongColumn indexes rows.
type Direction int

const (
	AlongRow Direction = iota
	AlongColumn
)

// ParseDirection converts the ROW and COLUMN tokens used on the command line.
func ParseDirection(token string) (Direction, error) {
	switch token {
	case "ROW":
		return AlongRow, nil
	case "COLUMN":
		return AlongColumn, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnrecognizedDirection, token)
	}
}

// Other returns the opposite direction.
func (d Direction) Other() Direction {
	if d == AlongRow {
		return AlongColumn
	}
	return AlongRow
}

func (d Direction) String() string {
	switch d {
	case AlongRow:
		return "ROW"
	case AlongColumn:
		return "COLUMN"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valid reports whether d is one of the two matrix directions.
func (d Direction) Valid() bool {
	return d == AlongRow || d == AlongColumn
}

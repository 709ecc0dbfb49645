// Package signal turns raw two-byte sensor frames into the three-way
// directional state consumed by the external automation logic.
package signal

// Direction is the classified three-way state derived from sensor frames.
type Direction int

const (
	DirectionStop Direction = iota
	DirectionLeft
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionStop:
		return "STOP"
	case DirectionLeft:
		return "LEFT"
	case DirectionRight:
		return "RIGHT"
	default:
		return "UNKNOWN"
	}
}

// Code is the integer encoding of the published signal read by external
// consumers: 0 neutral/unspecified, 1 LEFT, 2 RIGHT, 3 STOP.
type Code int

const (
	CodeUnspecified Code = 0
	CodeLeft        Code = 1
	CodeRight       Code = 2
	CodeStop        Code = 3
)

// Code projects a Direction onto its external integer encoding.
func (d Direction) Code() Code {
	switch d {
	case DirectionLeft:
		return CodeLeft
	case DirectionRight:
		return CodeRight
	case DirectionStop:
		return CodeStop
	default:
		return CodeUnspecified
	}
}

func (c Code) String() string {
	switch c {
	case CodeLeft:
		return "LEFT"
	case CodeRight:
		return "RIGHT"
	case CodeStop:
		return "STOP"
	default:
		return "UNSPECIFIED"
	}
}

package signal

// Threshold is the magnitude above which a sensor channel counts as active.
const Threshold = 100

// Classifier converts incoming two-byte sensor frames into a Direction.
//
// It is a Moore-style machine: the next state depends only on the current
// frame and the single previous state. The rules are evaluated in fixed
// order; when both channels are active and the previous state is STOP, no
// rule fires and the state stays unchanged. That ambiguous case is carried
// over from the band firmware's observed behavior on purpose.
//
// Classifier is not safe for concurrent use; it is owned by the link
// manager's event loop.
type Classifier struct {
	prev Direction
}

// NewClassifier creates a classifier starting at STOP.
func NewClassifier() *Classifier {
	return &Classifier{prev: DirectionStop}
}

// Feed classifies one frame. s1 is the "right" channel magnitude, s2 the
// "left" one. Returns the new current state.
func (c *Classifier) Feed(s1, s2 byte) Direction {
	right := int(s1) > Threshold
	left := int(s2) > Threshold

	switch {
	case (right && left && c.prev == DirectionLeft) || (!right && left):
		c.prev = DirectionLeft
	case (right && left && c.prev == DirectionRight) || (right && !left):
		c.prev = DirectionRight
	case !right && !left:
		c.prev = DirectionStop
	}
	return c.prev
}

// Current returns the present directional state.
func (c *Classifier) Current() Direction {
	return c.prev
}

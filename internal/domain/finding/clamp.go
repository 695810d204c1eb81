package finding

// Clamper clamps raw inputs into their documented bounds and remembers
// every value it had to move.
type Clamper struct {
	adjustments []Adjustment
}

// Float clamps v into [lo, hi].
func (c *Clamper) Float(field string, v, lo, hi float64) float64 {
	used := v
	if v < lo {
		used = lo
	} else if v > hi {
		used = hi
	}
	if used != v {
		c.adjustments = append(c.adjustments, Adjustment{Field: field, Given: v, Used: used})
	}
	return used
}

// Int clamps v into [lo, hi].
func (c *Clamper) Int(field string, v, lo, hi int) int {
	return int(c.Float(field, float64(v), float64(lo), float64(hi)))
}

// Adjustments returns the recorded adjustments, nil when nothing moved.
func (c *Clamper) Adjustments() []Adjustment {
	if len(c.adjustments) == 0 {
		return nil
	}
	out := make([]Adjustment, len(c.adjustments))
	copy(out, c.adjustments)
	return out
}

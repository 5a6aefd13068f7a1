package pointcloud

import "fmt"

// Mask holds one flag per point; true marks the point as an outlier.
type Mask []bool

// NewMask returns an all-false mask for n points.
func NewMask(n int) Mask {
	return make(Mask, n)
}

// Count returns the number of points marked as outliers.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a copy of the mask.
func (m Mask) Clone() Mask {
	if m == nil {
		return nil
	}
	out := make(Mask, len(m))
	copy(out, m)
	return out
}

// Or returns the element-wise union of two masks of equal length.
func (m Mask) Or(other Mask) (Mask, error) {
	if len(m) != len(other) {
		return nil, fmt.Errorf("mask length mismatch: %d vs %d", len(m), len(other))
	}
	out := make(Mask, len(m))
	for i := range m {
		out[i] = m[i] || other[i]
	}
	return out, nil
}

// Contains reports whether every outlier in other is also set in m.
func (m Mask) Contains(other Mask) bool {
	if len(m) != len(other) {
		return false
	}
	for i, v := range other {
		if v && !m[i] {
			return false
		}
	}
	return true
}

// Survivors returns the indices of the points not marked as outliers.
func (m Mask) Survivors() []int {
	out := make([]int, 0, len(m)-m.Count())
	for i, v := range m {
		if !v {
			out = append(out, i)
		}
	}
	return out
}

// Outliers returns the indices of the points marked as outliers.
func (m Mask) Outliers() []int {
	out := make([]int, 0, m.Count())
	for i, v := range m {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// Keep returns the points of c that are not marked in m.
func Keep(c Cloud, m Mask) (Cloud, error) {
	if len(c) != len(m) {
		return nil, fmt.Errorf("mask has %d entries for %d points", len(m), len(c))
	}
	return c.Subset(m.Survivors()), nil
}

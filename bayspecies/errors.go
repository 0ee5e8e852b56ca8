package bayspecies

import "fmt"

// InvalidRangeError reports a candidate N that cannot account for the
// number of categories already observed.
type InvalidRangeError struct {
	N        int
	Observed int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("bayspecies: candidate N (%v) is smaller than the number of observed categories (%v)", e.N, e.Observed)
}

// DegenerateNormalizationError reports a weight vector whose total mass
// collapsed to zero, leaving nothing to normalize.
type DegenerateNormalizationError struct {
	Op string
}

func (e *DegenerateNormalizationError) Error() string {
	return fmt.Sprintf("bayspecies: %v: total probability mass is zero", e.Op)
}

package scraper

// StopReason names the predicate that ended a scroll loop.
type StopReason string

const (
	StopCountExceeded StopReason = "count_exceeded"
	StopHeightStable  StopReason = "height_stable"
	StopMaxIterations StopReason = "max_iterations"
)

// State is what a StopFunc sees after each iteration.
type State struct {
	// Iteration is 1-based.
	Iteration int
	Sample    Sample
	// Stable counts consecutive iterations whose height equals the previous one.
	Stable int
}

// StopFunc decides whether the scroll loop should end after an iteration.
type StopFunc func(State) (StopReason, bool)

// CountExceeds stops once more than n titles have been observed.
// Used alone against a list shorter than n it never fires.
func CountExceeds(n int) StopFunc {
	return func(s State) (StopReason, bool) {
		return StopCountExceeded, s.Sample.Count > n
	}
}

// HeightStable stops once the scroll height has not changed for rounds
// consecutive iterations. rounds below 1 is treated as 1.
func HeightStable(rounds int) StopFunc {
	if rounds < 1 {
		rounds = 1
	}
	return func(s State) (StopReason, bool) {
		return StopHeightStable, s.Stable >= rounds
	}
}

// MaxIterations stops after n iterations. n below 1 is treated as 1.
func MaxIterations(n int) StopFunc {
	if n < 1 {
		n = 1
	}
	return func(s State) (StopReason, bool) {
		return StopMaxIterations, s.Iteration >= n
	}
}

// AnyOf stops as soon as one of fns does; earlier predicates win ties.
// Nil entries are skipped.
func AnyOf(fns ...StopFunc) StopFunc {
	return func(s State) (StopReason, bool) {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if r, ok := fn(s); ok {
				return r, true
			}
		}
		return "", false
	}
}

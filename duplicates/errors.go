package duplicates

// ValidationError reports out-of-contract input to an index query, such as a
// similarity threshold outside [0.0, 1.0]. Propagated immediately, no retry.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "duplicates: " + e.Reason
}

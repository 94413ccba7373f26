package fingerprint

import "fmt"

// FingerprintError reports image bytes that cannot be decoded, a degenerate
// decoded image, or a malformed fingerprint string passed to comparison.
// Callers use it to tell bad input apart from internal failures.
type FingerprintError struct {
	Reason string
	Err    error
}

func (e *FingerprintError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fingerprint: %s: %v", e.Reason, e.Err)
	}
	return "fingerprint: " + e.Reason
}

func (e *FingerprintError) Unwrap() error {
	return e.Err
}

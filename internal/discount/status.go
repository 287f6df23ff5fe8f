package discount

// Status tracks a session's discount application lifecycle. Encoding it here
// means correctness does not depend on the UI disabling its Apply control
// while a validation call is in flight.
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusValidating Status = "VALIDATING"
	StatusApplied    Status = "APPLIED"
	StatusFailed     Status = "FAILED"
)

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}

package intent

// Readiness is the latest known state of one input field.
type Readiness string

const (
	ReadinessEmpty   Readiness = "EMPTY"
	ReadinessPending Readiness = "PENDING"
	ReadinessReady   Readiness = "READY"
	ReadinessInvalid Readiness = "INVALID"
	ReadinessError   Readiness = "ERROR"
)

// GateInput is the field state gating a flow's action.
type GateInput struct {
	Target    Readiness
	Amount    Readiness
	Allowance Readiness
	// AllowanceSufficient is only meaningful when Allowance is ready and the
	// allowance was checked for the current amount and spender.
	AllowanceSufficient bool
}

// Gate derives the execution status from field state. Fields a flow does not
// use are ignored.
func Gate(spec FlowSpec, in GateInput) Status {
	var fields []Readiness
	if spec.HasTarget() {
		fields = append(fields, in.Target)
	}
	if spec.TakesAmount() {
		fields = append(fields, in.Amount)
	}
	if !spec.HasTarget() && !spec.TakesAmount() {
		return StatusIdle
	}

	for _, r := range fields {
		if r == ReadinessInvalid || r == ReadinessError {
			return StatusIdle
		}
	}
	for _, r := range fields {
		if r == ReadinessPending {
			return StatusValidating
		}
	}
	for _, r := range fields {
		if r == ReadinessEmpty {
			return StatusIdle
		}
	}

	if !spec.NeedsApproval() {
		return StatusReadyToSubmit
	}
	switch in.Allowance {
	case ReadinessReady:
		if in.AllowanceSufficient {
			return StatusReadyToSubmit
		}
		return StatusReadyToApprove
	case ReadinessPending, ReadinessEmpty:
		return StatusValidating
	default:
		return StatusIdle
	}
}

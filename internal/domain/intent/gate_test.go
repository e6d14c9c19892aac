package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSpec(t *testing.T, kind FlowKind) FlowSpec {
	t.Helper()
	spec, err := SpecFor(kind)
	require.NoError(t, err)
	return spec
}

func TestGate_Send(t *testing.T) {
	spec := mustSpec(t, FlowSend)
	tests := []struct {
		name string
		in   GateInput
		want Status
	}{
		{name: "empty", in: GateInput{Target: ReadinessEmpty, Amount: ReadinessEmpty, Allowance: ReadinessEmpty}, want: StatusIdle},
		{name: "target pending", in: GateInput{Target: ReadinessPending, Amount: ReadinessReady}, want: StatusValidating},
		{name: "invalid wins over pending", in: GateInput{Target: ReadinessInvalid, Amount: ReadinessPending}, want: StatusIdle},
		{name: "network error", in: GateInput{Target: ReadinessError, Amount: ReadinessReady}, want: StatusIdle},
		{name: "amount empty", in: GateInput{Target: ReadinessReady, Amount: ReadinessEmpty}, want: StatusIdle},
		{name: "allowance pending", in: GateInput{Target: ReadinessReady, Amount: ReadinessReady, Allowance: ReadinessPending}, want: StatusValidating},
		{name: "allowance not checked", in: GateInput{Target: ReadinessReady, Amount: ReadinessReady, Allowance: ReadinessEmpty}, want: StatusValidating},
		{name: "allowance error", in: GateInput{Target: ReadinessReady, Amount: ReadinessReady, Allowance: ReadinessError}, want: StatusIdle},
		{name: "insufficient", in: GateInput{Target: ReadinessReady, Amount: ReadinessReady, Allowance: ReadinessReady}, want: StatusReadyToApprove},
		{name: "sufficient", in: GateInput{Target: ReadinessReady, Amount: ReadinessReady, Allowance: ReadinessReady, AllowanceSufficient: true}, want: StatusReadyToSubmit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gate(spec, tt.in))
		})
	}
}

func TestGate_NoApprovalFlows(t *testing.T) {
	for _, kind := range []FlowKind{FlowRegister, FlowClaim} {
		spec := mustSpec(t, kind)
		assert.Equal(t, StatusReadyToSubmit, Gate(spec, GateInput{Target: ReadinessReady, Amount: ReadinessEmpty}), kind)
		assert.Equal(t, StatusValidating, Gate(spec, GateInput{Target: ReadinessPending}), kind)
		assert.Equal(t, StatusIdle, Gate(spec, GateInput{Target: ReadinessInvalid}), kind)
	}
}

func TestGate_CreatePoolIgnoresTarget(t *testing.T) {
	spec := mustSpec(t, FlowCreatePool)
	in := GateInput{Target: ReadinessInvalid, Amount: ReadinessReady, Allowance: ReadinessReady}
	assert.Equal(t, StatusReadyToApprove, Gate(spec, in))
}

func TestParseFlowKind(t *testing.T) {
	tests := map[string]FlowKind{
		"send":        FlowSend,
		"register":    FlowRegister,
		"createPool":  FlowCreatePool,
		"CREATE_POOL": FlowCreatePool,
		"claim":       FlowClaim,
	}
	for in, want := range tests {
		got, err := ParseFlowKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFlowKind("withdraw")
	assert.ErrorIs(t, err, ErrUnknownFlow)
}

func TestSpecFor(t *testing.T) {
	send := mustSpec(t, FlowSend)
	assert.True(t, send.ForbidSelf)
	assert.True(t, send.NeedsApproval())

	claim := mustSpec(t, FlowClaim)
	assert.False(t, claim.ForbidSelf)
	assert.False(t, claim.NeedsApproval())
	assert.False(t, claim.TakesAmount())

	_, err := SpecFor("NOPE")
	assert.ErrorIs(t, err, ErrUnknownFlow)
}

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sugarwatch/pantry-cli/internal/gateway"
)

func TestSafetyGate_Yes(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, gateway.CallConfig{}).
		Return("YES", nil)

	gate := NewSafetyGate(gw, SafetyPermit)
	assert.True(t, gate.Check(context.Background(), "Parle-G"))
	gw.AssertExpectations(t)
}

func TestSafetyGate_No(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, gateway.CallConfig{}).
		Return("NO", nil)

	gate := NewSafetyGate(gw, SafetyPermit)
	assert.False(t, gate.Check(context.Background(), "Whiskey"))
}

func TestSafetyGate_NormalizesVerdict(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, gateway.CallConfig{}).
		Return("  yes\n", nil)

	gate := NewSafetyGate(gw, SafetyPermit)
	assert.True(t, gate.Check(context.Background(), "Frooti"))
}

func TestSafetyGate_NonVerdictAnswerFails(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, gateway.CallConfig{}).
		Return("It is generally safe for children.", nil)

	gate := NewSafetyGate(gw, SafetyPermit)
	assert.False(t, gate.Check(context.Background(), "Frooti"))
}

func TestSafetyGate_ErrorPermitsByDefault(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, gateway.CallConfig{}).
		Return("", gateway.ErrUnavailable)

	gate := NewSafetyGate(gw, SafetyPermit)
	assert.True(t, gate.Check(context.Background(), "Parle-G"))
}

func TestSafetyGate_ErrorDeniesUnderDenyPolicy(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, gateway.CallConfig{}).
		Return("", gateway.ErrUnavailable)

	gate := NewSafetyGate(gw, SafetyDeny)
	assert.False(t, gate.Check(context.Background(), "Parle-G"))
}

func TestSafetyGate_UsesUngroundedCall(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, mock.MatchedBy(func(c gateway.CallConfig) bool {
		return !c.Grounded && c.Image == nil
	})).Return("YES", nil)

	gate := NewSafetyGate(gw, SafetyPermit)
	assert.True(t, gate.Check(context.Background(), "Parle-G"))
	gw.AssertExpectations(t)
}

func TestParseSafetyPolicy(t *testing.T) {
	assert.Equal(t, SafetyPermit, ParseSafetyPolicy(""))
	assert.Equal(t, SafetyPermit, ParseSafetyPolicy("permit"))
	assert.Equal(t, SafetyPermit, ParseSafetyPolicy("garbage"))
	assert.Equal(t, SafetyDeny, ParseSafetyPolicy("deny"))
	assert.Equal(t, SafetyDeny, ParseSafetyPolicy(" DENY "))
}

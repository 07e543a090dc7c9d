package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sugarwatch/pantry-cli/internal/gateway"
)

func TestSugarResolver_Numeric(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Parle-G")
	}), gateway.CallConfig{Grounded: true}).Return("14.5", nil)

	sugar := NewSugarResolver(gw).Resolve(context.Background(), "Parle-G")
	assert.True(t, sugar.Known)
	assert.Equal(t, 14.5, sugar.Grams)
	gw.AssertExpectations(t)
}

func TestSugarResolver_TrimsResponse(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(" 19 \n", nil)

	sugar := NewSugarResolver(gw).Resolve(context.Background(), "Frooti")
	assert.True(t, sugar.Known)
	assert.Equal(t, 19.0, sugar.Grams)
}

func TestSugarResolver_UnknownToken(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return("UNKNOWN", nil)

	sugar := NewSugarResolver(gw).Resolve(context.Background(), "Obscure brand")
	assert.False(t, sugar.Known)
	assert.Zero(t, sugar.Grams)
}

func TestSugarResolver_UnknownTokenCaseInsensitive(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return("unknown", nil)

	sugar := NewSugarResolver(gw).Resolve(context.Background(), "Obscure brand")
	assert.False(t, sugar.Known)
}

func TestSugarResolver_NonFiniteAnswerStaysUnresolved(t *testing.T) {
	// strconv.ParseFloat parses these, but none is a usable amount.
	for _, resp := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf"} {
		t.Run(resp, func(t *testing.T) {
			gw := &mockGateway{}
			gw.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(resp, nil)

			sugar := NewSugarResolver(gw).Resolve(context.Background(), "Frooti")
			assert.False(t, sugar.Known)
			assert.Zero(t, sugar.Grams)
		})
	}
}

func TestSugarResolver_NonNumericAnswer(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, mock.Anything).
		Return("about 12 grams per serving", nil)

	sugar := NewSugarResolver(gw).Resolve(context.Background(), "Frooti")
	assert.False(t, sugar.Known)
}

func TestSugarResolver_GatewayError(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Classify", mock.Anything, mock.Anything, mock.Anything).
		Return("", gateway.ErrUnavailable)

	sugar := NewSugarResolver(gw).Resolve(context.Background(), "Parle-G")
	assert.False(t, sugar.Known)
	gw.AssertNumberOfCalls(t, "Classify", 1)
}

package pipeline

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sugarwatch/pantry-cli/internal/gateway"
	"github.com/sugarwatch/pantry-cli/internal/model"
)

// SugarResolver resolves numeric sugar content for a product name via one
// grounded lookup. It never returns an error: any non-numeric answer,
// including the unknown token, garbage text, or a gateway failure, yields
// the unresolved value. One attempt per invocation; the orchestrator
// decides whether to re-invoke.
type SugarResolver struct {
	gw gateway.Gateway
}

// NewSugarResolver creates the resolver.
func NewSugarResolver(gw gateway.Gateway) *SugarResolver {
	return &SugarResolver{gw: gw}
}

// Resolve returns the sugar content in grams, or unresolved.
func (r *SugarResolver) Resolve(ctx context.Context, name string) model.Sugar {
	resp, err := r.gw.Classify(ctx, fmt.Sprintf(sugarContentPrompt, name), gateway.WithGrounding())
	if err != nil {
		zap.L().Warn("sugar: lookup failed", zap.String("name", name), zap.Error(err))
		return model.UnknownSugar()
	}

	value := strings.TrimSpace(resp)
	if strings.EqualFold(value, unknownToken) {
		return model.UnknownSugar()
	}

	// ParseFloat accepts the literals "NaN" and "Inf"; neither is a sugar
	// amount, so both stay unresolved.
	grams, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(grams) || math.IsInf(grams, 0) {
		zap.L().Debug("sugar: non-numeric response",
			zap.String("name", name),
			zap.String("response", value),
		)
		return model.UnknownSugar()
	}

	return model.Grams(grams)
}

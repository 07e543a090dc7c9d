package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sugarwatch/pantry-cli/internal/gateway"
)

// SafetyPolicy selects the verdict when the inference service fails.
type SafetyPolicy string

const (
	// SafetyPermit is the default: on gateway error the item passes. This
	// is a deliberate availability-over-safety tradeoff carried over from
	// the observed behavior; the gate must not block the user when the
	// service is down.
	SafetyPermit SafetyPolicy = "permit"
	// SafetyDeny fails closed instead.
	SafetyDeny SafetyPolicy = "deny"
)

// ParseSafetyPolicy maps a config string onto a policy, defaulting to permit.
func ParseSafetyPolicy(s string) SafetyPolicy {
	if SafetyPolicy(strings.ToLower(strings.TrimSpace(s))) == SafetyDeny {
		return SafetyDeny
	}
	return SafetyPermit
}

// SafetyGate decides child-appropriateness for a candidate product name.
// It is the single mandatory gate: no candidate is accepted without passing
// it, regardless of entry path.
type SafetyGate struct {
	gw     gateway.Gateway
	policy SafetyPolicy
}

// NewSafetyGate creates the gate with the given failure policy.
func NewSafetyGate(gw gateway.Gateway, policy SafetyPolicy) *SafetyGate {
	if policy == "" {
		policy = SafetyPermit
	}
	return &SafetyGate{gw: gw, policy: policy}
}

// Check returns true when the item is appropriate for children. One
// ungrounded classify call; only an exact "YES" (after trim+uppercase)
// passes a successful call. On gateway failure the configured policy
// decides.
func (g *SafetyGate) Check(ctx context.Context, name string) bool {
	resp, err := g.gw.Classify(ctx, fmt.Sprintf(childSafetyPrompt, name))
	if err != nil {
		permitted := g.policy != SafetyDeny
		zap.L().Warn("safety: check failed, applying policy",
			zap.String("name", name),
			zap.String("policy", string(g.policy)),
			zap.Bool("permitted", permitted),
			zap.Error(err),
		)
		return permitted
	}

	return strings.ToUpper(strings.TrimSpace(resp)) == "YES"
}

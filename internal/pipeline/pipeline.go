// Package pipeline implements the item acquisition pipeline: it turns an
// ambiguous input, a typed product name or a photographed package, into a
// fully populated, safety-vetted candidate ready for persistence, or into
// an explicit fallback the caller can act on.
package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sugarwatch/pantry-cli/internal/capture"
	"github.com/sugarwatch/pantry-cli/internal/gateway"
	"github.com/sugarwatch/pantry-cli/internal/model"
	"github.com/sugarwatch/pantry-cli/pkg/upload"
)

// identifier abstracts the image recognition stage so scan-path tests can
// script its result.
type identifier interface {
	Identify(ctx context.Context, frame []byte) (model.CandidateItem, error)
}

// Acquisition orchestrates one run of the pipeline. States advance
// strictly forward (capture, extract, look up, safety check, resolve
// sugar) with at most one external call in flight; no state is re-entered
// once left. Every run terminates in exactly one Outcome.
type Acquisition struct {
	safety      *SafetyGate
	sugar       *SugarResolver
	recog       identifier
	jpegQuality int
}

// New wires the acquisition pipeline.
func New(gw gateway.Gateway, uploader upload.Client, policy SafetyPolicy, jpegQuality int) *Acquisition {
	return &Acquisition{
		safety:      NewSafetyGate(gw, policy),
		sugar:       NewSugarResolver(gw),
		recog:       NewRecognizer(gw, uploader),
		jpegQuality: jpegQuality,
	}
}

// Submit runs the manual-text entry path. Name and cost must be present;
// otherwise the run terminates immediately as NeedsMoreInput without any
// service call. A candidate resubmitted after NeedsManualSugar goes
// through the safety check again; the name could have been edited.
func (a *Acquisition) Submit(ctx context.Context, cand model.CandidateItem) model.Outcome {
	cand.Name = strings.TrimSpace(cand.Name)
	if cand.Category == "" {
		cand.Category = model.CategoryOther
	}

	if cand.Name == "" || cand.Cost <= 0 {
		zap.L().Debug("pipeline: incomplete candidate, no service calls",
			zap.String("name", cand.Name),
			zap.Float64("cost", cand.Cost),
		)
		return model.NeedsMoreInput(cand)
	}

	return a.vet(ctx, cand)
}

// Scan runs the image entry path: capture one frame, identify the product,
// then converge onto the same vetting logic as manual entry. The returned
// error is non-nil only for device failures; every inference failure is
// absorbed into an Outcome. The device is released on every exit path.
func (a *Acquisition) Scan(ctx context.Context, dev capture.Device) (model.Outcome, error) {
	sess := capture.NewSession(dev, a.jpegQuality)
	if err := sess.Start(ctx); err != nil {
		return model.Outcome{}, eris.Wrap(err, "pipeline: start capture")
	}
	defer sess.Close()

	frame, err := sess.Capture(ctx)
	if err != nil {
		return model.Outcome{}, eris.Wrap(err, "pipeline: capture frame")
	}

	// The frame is taken; release the device before the slow inference
	// calls so a second session is not locked out meanwhile.
	if err := sess.Close(); err != nil {
		zap.L().Warn("pipeline: device release failed", zap.Error(err))
	}

	cand, err := a.recog.Identify(ctx, frame)
	if err != nil {
		// Extraction or lookup failed: fall back to manual entry of
		// everything. No fields are populated.
		zap.L().Info("pipeline: scan identification failed", zap.Error(err))
		return model.NeedsMoreInput(model.CandidateItem{Category: model.CategoryOther}), nil
	}

	zap.L().Info("pipeline: scan identified product",
		zap.String("name", cand.Name),
		zap.Float64("cost", cand.Cost),
		zap.Bool("sugar_known", cand.Sugar.Known),
	)

	// Convergence: from here the scan path is the manual path. Submit
	// also re-validates, so a lookup that came back without a price lands
	// in NeedsMoreInput with the found fields preserved.
	return a.Submit(ctx, cand), nil
}

// vet drives SafetyCheck and, when needed, ResolvingSugar.
func (a *Acquisition) vet(ctx context.Context, cand model.CandidateItem) model.Outcome {
	if !a.safety.Check(ctx, cand.Name) {
		zap.L().Info("pipeline: candidate rejected", zap.String("name", cand.Name))
		return model.Rejected("unsafe")
	}

	if cand.Sugar.Known {
		return model.Accepted(cand)
	}

	resolved := a.sugar.Resolve(ctx, cand.Name)
	if !resolved.Known {
		return model.NeedsManualSugar(cand)
	}

	cand.Sugar = resolved
	zap.L().Info("pipeline: sugar resolved",
		zap.String("name", cand.Name),
		zap.Float64("grams", resolved.Grams),
	)
	return model.Accepted(cand)
}

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sugarwatch/pantry-cli/internal/gateway"
	"github.com/sugarwatch/pantry-cli/internal/model"
	"github.com/sugarwatch/pantry-cli/pkg/upload"
)

// productSchema is the externally observable contract of the grounded
// product lookup. Downstream resolution is keyed on these field names.
var productSchema = gateway.Schema{
	Properties: []gateway.Property{
		{Name: "name", Type: "string"},
		{Name: "cost", Type: "number"},
		{Name: "sugar", Type: "number"},
	},
}

// ProductInfo is the structured lookup result. Cost and sugar are
// independently nullable; name is only present when the lookup succeeded
// at all.
type ProductInfo struct {
	Name  string   `json:"name"`
	Cost  *float64 `json:"cost"`
	Sugar *float64 `json:"sugar"`
}

var (
	errNoText         = eris.New("recognize: no readable text on package")
	errProductUnknown = eris.New("recognize: product not identified")
)

// Recognizer turns a captured package photo into a candidate item: upload,
// text extraction from the image, then a grounded structured lookup.
type Recognizer struct {
	gw       gateway.Gateway
	uploader upload.Client
}

// NewRecognizer creates the recognizer.
func NewRecognizer(gw gateway.Gateway, uploader upload.Client) *Recognizer {
	return &Recognizer{gw: gw, uploader: uploader}
}

// Identify runs both stages over a JPEG frame. Any failure other than
// upload (empty extraction, lookup failure, the UNKNOWN sentinel) is
// returned as an error; the orchestrator maps all of them to the same
// fallback.
func (r *Recognizer) Identify(ctx context.Context, frame []byte) (model.CandidateItem, error) {
	ref := gateway.ImageRef{Data: frame, MediaType: "image/jpeg"}

	// Upload first so the inference service can fetch the image by URL.
	// A failed upload is not fatal; the frame is still attached inline.
	up, err := r.uploader.Upload(ctx, fmt.Sprintf("product-%d.jpg", time.Now().UnixMilli()), frame)
	if err != nil {
		zap.L().Warn("recognize: upload failed, sending frame inline", zap.Error(err))
	} else {
		ref.URL = up.FileURL
	}

	description, err := r.ExtractDescription(ctx, ref)
	if err != nil {
		return model.CandidateItem{}, err
	}

	info, err := r.LookupProduct(ctx, description)
	if err != nil {
		return model.CandidateItem{}, err
	}

	cand := model.CandidateItem{
		Name:     info.Name,
		Category: model.CategoryOther,
		Sugar:    model.UnknownSugar(),
	}
	if info.Cost != nil {
		cand.Cost = *info.Cost
	}
	if info.Sugar != nil {
		cand.Sugar = model.Grams(*info.Sugar)
	}
	return cand, nil
}

// ExtractDescription asks the vision model for any readable identifying
// text on the package. A whitespace-only answer is extraction failure.
func (r *Recognizer) ExtractDescription(ctx context.Context, ref gateway.ImageRef) (string, error) {
	text, err := r.gw.Classify(ctx, packageTextPrompt, gateway.WithImage(ref))
	if err != nil {
		return "", eris.Wrap(err, "recognize: extract description")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errNoText
	}
	return text, nil
}

// LookupProduct resolves name, cost, and sugar for the extracted text via
// one grounded structured call. The sentinel object (name "UNKNOWN") is
// treated identically to a gateway failure.
func (r *Recognizer) LookupProduct(ctx context.Context, description string) (*ProductInfo, error) {
	var info ProductInfo
	err := r.gw.ClassifyStructured(ctx,
		fmt.Sprintf(productLookupPrompt, description),
		productSchema, &info,
		gateway.WithGrounding(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "recognize: lookup product")
	}

	if strings.EqualFold(strings.TrimSpace(info.Name), unknownToken) {
		return nil, errProductUnknown
	}
	if strings.TrimSpace(info.Name) == "" {
		return nil, errProductUnknown
	}

	return &info, nil
}

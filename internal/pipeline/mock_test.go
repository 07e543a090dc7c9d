package pipeline

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"github.com/sugarwatch/pantry-cli/internal/capture"
	"github.com/sugarwatch/pantry-cli/internal/gateway"
	"github.com/sugarwatch/pantry-cli/internal/model"
	"github.com/sugarwatch/pantry-cli/pkg/upload"
)

// --- Gateway Mock ---

// mockGateway folds the call options into a CallConfig so expectations can
// match on grounding and image attachment.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Classify(ctx context.Context, prompt string, opts ...gateway.CallOption) (string, error) {
	args := m.Called(ctx, prompt, gateway.ResolveOptions(opts))
	return args.String(0), args.Error(1)
}

func (m *mockGateway) ClassifyStructured(ctx context.Context, prompt string, schema gateway.Schema, out any, opts ...gateway.CallOption) error {
	args := m.Called(ctx, prompt, schema, out, gateway.ResolveOptions(opts))
	return args.Error(0)
}

// --- Upload Mock ---

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, filename string, data []byte) (*upload.UploadResponse, error) {
	args := m.Called(ctx, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upload.UploadResponse), args.Error(1)
}

// --- Capture Device Mock ---

type mockDevice struct {
	mock.Mock
}

func (m *mockDevice) Open(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockDevice) WaitReady(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockDevice) Grab(ctx context.Context) (image.Image, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}

func (m *mockDevice) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Identifier Mock ---

type mockIdentifier struct {
	mock.Mock
}

func (m *mockIdentifier) Identify(ctx context.Context, frame []byte) (model.CandidateItem, error) {
	args := m.Called(ctx, frame)
	return args.Get(0).(model.CandidateItem), args.Error(1)
}

// --- Ensure interface compliance ---
var (
	_ gateway.Gateway = (*mockGateway)(nil)
	_ upload.Client   = (*mockUploader)(nil)
	_ capture.Device  = (*mockDevice)(nil)
	_ identifier      = (*mockIdentifier)(nil)
)

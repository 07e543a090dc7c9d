package capture

import (
	"context"
	"image"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// HTTPDevice captures frames from the snapshot endpoint of a network
// camera. Each Grab fetches one still image.
type HTTPDevice struct {
	snapshotURL string
	http        *http.Client
	open        bool
}

// HTTPDeviceOption configures an HTTPDevice.
type HTTPDeviceOption func(*HTTPDevice)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) HTTPDeviceOption {
	return func(d *HTTPDevice) {
		d.http = hc
	}
}

// NewHTTPDevice creates a device that fetches stills from snapshotURL.
func NewHTTPDevice(snapshotURL string, opts ...HTTPDeviceOption) *HTTPDevice {
	d := &HTTPDevice{
		snapshotURL: snapshotURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *HTTPDevice) Open(ctx context.Context) error {
	u, err := url.Parse(d.snapshotURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return eris.Errorf("capture: invalid snapshot url %q", d.snapshotURL)
	}
	d.open = true
	return nil
}

func (d *HTTPDevice) WaitReady(ctx context.Context) error {
	if !d.open {
		return eris.New("capture: http device not open")
	}
	return ctx.Err()
}

func (d *HTTPDevice) Grab(ctx context.Context) (image.Image, error) {
	if !d.open {
		return nil, eris.New("capture: http device not open")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.snapshotURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "capture: create snapshot request")
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "capture: fetch snapshot")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("capture: snapshot status %d: %s", resp.StatusCode, string(body))
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "capture: decode snapshot")
	}
	return img, nil
}

func (d *HTTPDevice) Close() error {
	d.open = false
	return nil
}

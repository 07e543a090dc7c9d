package capture

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rotisserie/eris"
)

// FileDevice is a capture device backed by a still image on disk. It is the
// device the CLI scan command uses when given --image.
type FileDevice struct {
	path string
	file *os.File
}

// NewFileDevice creates a device that serves the image at path.
func NewFileDevice(path string) *FileDevice {
	return &FileDevice{path: path}
}

func (d *FileDevice) Open(ctx context.Context) error {
	f, err := os.Open(d.path)
	if err != nil {
		return eris.Wrapf(err, "capture: open %s", d.path)
	}
	d.file = f
	return nil
}

func (d *FileDevice) WaitReady(ctx context.Context) error {
	if d.file == nil {
		return eris.New("capture: file device not open")
	}
	return ctx.Err()
}

func (d *FileDevice) Grab(ctx context.Context) (image.Image, error) {
	if d.file == nil {
		return nil, eris.New("capture: file device not open")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(d.file)
	if err != nil {
		return nil, eris.Wrapf(err, "capture: decode %s", d.path)
	}
	return img, nil
}

func (d *FileDevice) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	if err != nil {
		return eris.Wrapf(err, "capture: close %s", d.path)
	}
	return nil
}

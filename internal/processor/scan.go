package processor

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"

	"tilesweep/pkg/imgutil"
)

// Scanner returns a ScanFunc that decodes each file and measures runs of targets.
func Scanner(targets []RGB) ScanFunc {
	return func(path string) Result {
		return ScanFile(path, targets)
	}
}

// ScanFile decodes the image at path and scans it. Open and decode failures
// are returned as a StatusError result, never as a panic or error value.
func ScanFile(path string, targets []RGB) (res Result) {
	res = Result{Path: path}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Path: path, Status: StatusError, Err: fmt.Errorf("decode panic: %v", r)}
		}
	}()

	img, err := loadImage(path)
	if err != nil {
		res.Status = StatusError
		res.Err = err
		return res
	}

	res.Runs = ScanImage(img, targets)
	res.Status = StatusSuccess
	return res
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	kind, err := imgutil.SniffReader(file)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if kind == imgutil.KindUnknown {
		return nil, fmt.Errorf("unsupported image format")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return img, nil
}

package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// Source yields the raw scans of one batch, one page at a time.
// Page may be called concurrently for different indices; the caller closes the Mat.
type Source interface {
	PageCount() int
	Name(index int) string
	Page(index int) (gocv.Mat, error)
	Close() error
}

// Open picks a source for path: a PDF document, a single image or a directory of images.
func Open(path string, dpi int) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewPDFSource(path, dpi)
	}
	return NewImageSource(path)
}

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("page %d out of range [0,%d)", index, count)
	}
	return nil
}

package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"omrscan/internal/raster"

	"github.com/gen2brain/go-fitz"
	"gocv.io/x/gocv"
)

// DefaultDPI matches the resolution the detector thresholds were tuned on.
const DefaultDPI = 300

// PDFSource renders the pages of a scanned PDF.
type PDFSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewPDFSource(path string, dpi int) (*PDFSource, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	return &PDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (f *PDFSource) PageCount() int {
	return f.doc.NumPage()
}

// Name is the document name with a 1-based page suffix, e.g. scan_p003.
func (f *PDFSource) Name(index int) string {
	base := filepath.Base(f.path)
	return fmt.Sprintf("%s_p%03d", strings.TrimSuffix(base, filepath.Ext(base)), index+1)
}

// Page renders one page. Each call opens its own document handle so pages can be
// rendered from several goroutines.
func (f *PDFSource) Page(index int) (gocv.Mat, error) {
	if err := checkIndex(index, f.PageCount()); err != nil {
		return gocv.NewMat(), err
	}

	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer workerDoc.Close()

	img, err := workerDoc.ImageDPI(index, float64(f.dpi))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to render page %d: %w", index, err)
	}
	return raster.FromImage(img)
}

func (f *PDFSource) Close() error {
	return f.doc.Close()
}

package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"omrscan/internal/raster"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// ImageSource reads scans from image files.
type ImageSource struct {
	paths []string
}

// NewImageSource accepts a single image file or a directory, whose images are taken
// in name order.
func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

// Name is the file name without its extension.
func (s *ImageSource) Name(index int) string {
	if checkIndex(index, len(s.paths)) != nil {
		return ""
	}
	base := filepath.Base(s.paths[index])
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Page decodes the image with the Go decoders, which also cover TIFF and BMP scans.
func (s *ImageSource) Page(index int) (gocv.Mat, error) {
	if err := checkIndex(index, len(s.paths)); err != nil {
		return gocv.NewMat(), err
	}

	f, err := os.Open(s.paths[index])
	if err != nil {
		return gocv.NewMat(), err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode %s: %w", s.paths[index], err)
	}
	return raster.FromImage(img)
}

func (s *ImageSource) Close() error {
	return nil
}

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"omrscan/internal/config"
	"omrscan/internal/dto"
	"omrscan/internal/logger"
	"omrscan/internal/model"
	"omrscan/internal/raster"
	"omrscan/internal/repository"

	"gocv.io/x/gocv"
)

// PageFile is the name of the normalized page image inside a sheet directory.
const PageFile = "page.png"

// ErrInvalidSheetName is returned for names that cannot become a directory.
var ErrInvalidSheetName = errors.New("invalid sheet name")

// RegionStore writes processed sheets to disk and records them in the repositories.
// Each sheet gets its own directory under the output directory:
//
//	<out>/<sheet>/page.png
//	<out>/<sheet>/0004_student_id.r0.c0.png
type RegionStore struct {
	outputDir  string
	logger     *logger.Logger
	sheetRepo  repository.SheetRepository
	regionRepo repository.RegionRepository
	now        func() time.Time
}

// NewRegionStore creates a RegionStore. The repositories may be nil, in which case
// only files are written.
func NewRegionStore(config *config.Config, logger *logger.Logger, sheetRepo repository.SheetRepository, regionRepo repository.RegionRepository) *RegionStore {
	return &RegionStore{
		outputDir:  config.OutputDirectory,
		logger:     logger,
		sheetRepo:  sheetRepo,
		regionRepo: regionRepo,
		now:        time.Now,
	}
}

// OutputDir returns the root directory sheets are written under.
func (s *RegionStore) OutputDir() string {
	return s.outputDir
}

// SafeName turns a user supplied sheet name into a single path element.
func SafeName(name string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))

	if clean == "" || strings.Trim(clean, ".") == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSheetName, name)
	}
	return clean, nil
}

// RegionFile is the file name of region index within its sheet directory.
func RegionFile(index int, name string) string {
	return fmt.Sprintf("%04d_%s.png", index, name)
}

// Save writes the normalized page and every region of result, replacing an earlier
// sheet with the same name.
func (s *RegionStore) Save(templateName string, result *dto.SheetResult) (*model.Sheet, error) {
	if result.Err != nil {
		return nil, fmt.Errorf("sheet %s was not processed: %w", result.Name, result.Err)
	}
	name, err := SafeName(result.Name)
	if err != nil {
		return nil, err
	}

	if err := s.removeExisting(name); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.outputDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sheet directory: %w", err)
	}

	if result.Normalized != nil {
		if err := writePNG(filepath.Join(dir, PageFile), *result.Normalized); err != nil {
			return nil, err
		}
	}

	records := make([]model.Region, 0, len(result.Regions))
	for _, region := range result.Regions {
		path := filepath.Join(dir, RegionFile(region.Index, region.Spec.Name))
		if err := writePNG(path, region.Mat); err != nil {
			return nil, err
		}
		records = append(records, model.Region{
			Index:    region.Index,
			Name:     region.Spec.Name,
			Kind:     string(region.Spec.Kind),
			Parent:   region.Spec.Parent,
			Row:      region.Spec.Row,
			Col:      region.Spec.Col,
			X:        region.Bounds.Min.X,
			Y:        region.Bounds.Min.Y,
			Width:    region.Bounds.Dx(),
			Height:   region.Bounds.Dy(),
			FilePath: path,
		})
	}

	width, height := result.PageSize()
	sheet := &model.Sheet{
		Name:        name,
		Template:    templateName,
		ProcessedAt: s.now(),
		PageWidth:   width,
		PageHeight:  height,
		Directory:   dir,
		RegionCount: len(records),
	}
	if d := result.Detection; d != nil {
		sheet.TopLeftX, sheet.TopLeftY = d.Box.TopLeft.X, d.Box.TopLeft.Y
		sheet.BottomRightX, sheet.BottomRightY = d.Box.BottomRight.X, d.Box.BottomRight.Y
		sheet.LowConfidence = d.LowConfidence
		sheet.Defaulted = strings.Join(d.Defaulted, ",")
	}

	if s.sheetRepo != nil {
		id, err := s.sheetRepo.Insert(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to record sheet %s: %w", name, err)
		}
		sheet.ID = id

		if s.regionRepo != nil && len(records) > 0 {
			for i := range records {
				records[i].SheetID = id
			}
			if err := s.regionRepo.InsertBatch(records); err != nil {
				return nil, fmt.Errorf("failed to record regions of %s: %w", name, err)
			}
		}
	}

	s.logger.Info("Saved sheet %s: %d regions to %s", name, len(records), dir)
	return sheet, nil
}

// removeExisting drops the record and files of an earlier sheet with the same name.
func (s *RegionStore) removeExisting(name string) error {
	if s.sheetRepo == nil {
		return os.RemoveAll(filepath.Join(s.outputDir, name))
	}
	existing, err := s.sheetRepo.GetByName(name)
	if err != nil {
		return err
	}
	if existing == nil {
		return os.RemoveAll(filepath.Join(s.outputDir, name))
	}
	s.logger.Warning("Sheet %s already exists, replacing it", name)
	return s.Delete(existing.ID)
}

// Delete removes a recorded sheet, its regions and its directory.
func (s *RegionStore) Delete(id int64) error {
	if s.sheetRepo == nil {
		return errors.New("no sheet repository configured")
	}
	sheet, err := s.sheetRepo.GetByID(id)
	if err != nil {
		return err
	}
	if sheet == nil {
		return nil
	}

	if err := s.sheetRepo.Delete(id); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.outputDir, sheet.Name)); err != nil {
		s.logger.Error("Failed to delete directory of sheet %s: %v", sheet.Name, err)
		return err
	}
	s.logger.Info("Deleted sheet %s", sheet.Name)
	return nil
}

func writePNG(path string, mat gocv.Mat) error {
	data, err := raster.EncodePNG(mat)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

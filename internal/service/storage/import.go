package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"omrscan/internal/layout"
	"omrscan/internal/model"

	"gocv.io/x/gocv"
)

// ErrNotASheet is returned by Import for directories without a page image.
var ErrNotASheet = errors.New("not a sheet directory")

// ParseRegionFile splits a region file name written by Save into index and region name.
func ParseRegionFile(filename string) (int, string, bool) {
	base := strings.TrimSuffix(filename, ".png")
	if base == filename {
		return 0, "", false
	}
	prefix, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", false
	}
	index, err := strconv.Atoi(prefix)
	if err != nil || index < 0 {
		return 0, "", false
	}
	return index, name, true
}

// SheetDirs lists the sheet directories under the output directory.
func (s *RegionStore) SheetDirs() ([]string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Import records a sheet directory that is on disk but not in the database. Region
// bounds are recomputed from l and the stored page size; files that do not match l
// are skipped. A sheet that is already recorded is returned unchanged.
func (s *RegionStore) Import(name string, l *layout.Layout, templateName string) (*model.Sheet, bool, error) {
	if s.sheetRepo == nil {
		return nil, false, errors.New("no sheet repository configured")
	}
	if existing, err := s.sheetRepo.GetByName(name); err != nil || existing != nil {
		return existing, false, err
	}

	dir := filepath.Join(s.outputDir, name)
	pagePath := filepath.Join(dir, PageFile)
	info, err := os.Stat(pagePath)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrNotASheet, dir)
	}

	page := gocv.IMRead(pagePath, gocv.IMReadColor)
	width, height := page.Cols(), page.Rows()
	page.Close()
	if width == 0 || height == 0 {
		return nil, false, fmt.Errorf("failed to read %s", pagePath)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false, err
	}

	var records []model.Region
	for _, entry := range entries {
		index, regionName, ok := ParseRegionFile(entry.Name())
		if !ok || index >= l.Len() || l.Spec(index).Name != regionName {
			if entry.Name() != PageFile {
				s.logger.Warning("Sheet %s: skipping %s, not part of template %s", name, entry.Name(), templateName)
			}
			continue
		}

		spec := l.Spec(index)
		bounds, err := l.Absolute(index).Pixels(width, height)
		if err != nil {
			return nil, false, fmt.Errorf("region %s: %w", spec.Name, err)
		}
		records = append(records, model.Region{
			Index:    index,
			Name:     spec.Name,
			Kind:     string(spec.Kind),
			Parent:   spec.Parent,
			Row:      spec.Row,
			Col:      spec.Col,
			X:        bounds.Min.X,
			Y:        bounds.Min.Y,
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
			FilePath: filepath.Join(dir, entry.Name()),
		})
	}

	sheet := &model.Sheet{
		Name:        name,
		Template:    templateName,
		ProcessedAt: info.ModTime(),
		PageWidth:   width,
		PageHeight:  height,
		Directory:   dir,
		RegionCount: len(records),
	}
	id, err := s.sheetRepo.Insert(sheet)
	if err != nil {
		return nil, false, fmt.Errorf("failed to record sheet %s: %w", name, err)
	}
	sheet.ID = id

	if s.regionRepo != nil && len(records) > 0 {
		for i := range records {
			records[i].SheetID = id
		}
		if err := s.regionRepo.InsertBatch(records); err != nil {
			return nil, false, fmt.Errorf("failed to record regions of %s: %w", name, err)
		}
	}

	s.logger.Info("Imported sheet %s: %d regions", name, len(records))
	return sheet, true, nil
}

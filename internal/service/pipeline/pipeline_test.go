package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"omrscan/internal/dto"
	"omrscan/internal/geometry"
	"omrscan/internal/logger"
	"omrscan/internal/raster"
	"omrscan/internal/service/fiducial"
	"omrscan/internal/template"

	"gocv.io/x/gocv"
)

// memorySource serves pre-drawn pages; a nil entry fails to load.
type memorySource struct {
	pages []*gocv.Mat
}

func (s *memorySource) PageCount() int        { return len(s.pages) }
func (s *memorySource) Name(index int) string { return fmt.Sprintf("page%d", index) }
func (s *memorySource) Close() error {
	for _, p := range s.pages {
		if p != nil {
			p.Close()
		}
	}
	return nil
}

func (s *memorySource) Page(index int) (gocv.Mat, error) {
	if s.pages[index] == nil {
		return gocv.NewMat(), errors.New("unreadable scan")
	}
	return s.pages[index].Clone(), nil
}

func goodPage() *gocv.Mat {
	m := raster.CalibrationSheet(1300, 1300, geometry.Point{X: 50, Y: 50}, geometry.Point{X: 1200, Y: 1200})
	return &m
}

func blankPage() *gocv.Mat {
	m := raster.CalibrationSheet(1300, 1300)
	return &m
}

func setupPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(template.Default(), logger.NewDiscard())
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}
	return p
}

func TestProcess(t *testing.T) {
	p := setupPipeline(t)
	page := goodPage()
	defer page.Close()

	result, err := p.Process("scan1_001", *page)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	defer result.Close()

	w, h := result.PageSize()
	if w < 382 || w > 384 || h < 382 || h > 384 {
		t.Errorf("Expected a ~383x383 normalized page, got %dx%d", w, h)
	}

	l, _ := template.Default().Layout()
	if len(result.Regions) != l.Len() {
		t.Fatalf("Expected %d regions, got %d", l.Len(), len(result.Regions))
	}
	if result.Regions[0].Spec.Name != "subject_name" {
		t.Errorf("Expected subject_name first, got %s", result.Regions[0].Spec.Name)
	}
	if result.Detection == nil || result.Detection.LowConfidence {
		t.Errorf("Unexpected detection: %+v", result.Detection)
	}
}

func TestProcess_NoMarkers(t *testing.T) {
	p := setupPipeline(t)
	page := blankPage()
	defer page.Close()

	_, err := p.Process("blank", *page)
	if !errors.Is(err, fiducial.ErrNoMarkerFound) {
		t.Errorf("Expected ErrNoMarkerFound, got %v", err)
	}
}

func TestNew_InvalidTemplate(t *testing.T) {
	tmpl := template.Default()
	tmpl.Normalizer.Scale = 0
	if _, err := New(tmpl, logger.NewDiscard()); err == nil {
		t.Error("Expected an error for a zero scale")
	}
}

func TestBatch(t *testing.T) {
	p := setupPipeline(t)
	src := &memorySource{pages: []*gocv.Mat{goodPage(), blankPage(), nil, goodPage()}}
	defer src.Close()

	var (
		mu       sync.Mutex
		failed   = map[string]bool{}
		regions  = map[string]int{}
		last     dto.Progress
		progress int
	)

	err := p.Batch(context.Background(), src, 2,
		func(ev dto.Progress) {
			mu.Lock()
			defer mu.Unlock()
			progress++
			if ev.Finished >= last.Finished {
				last = ev
			}
		},
		func(r *dto.SheetResult) error {
			mu.Lock()
			defer mu.Unlock()
			if r.Err != nil {
				failed[r.Name] = true
				return nil
			}
			regions[r.Name] = len(r.Regions)
			return nil
		})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	if len(regions) != 2 || regions["page0"] == 0 || regions["page3"] == 0 {
		t.Errorf("Expected page0 and page3 to succeed, got %v", regions)
	}
	if !failed["page1"] || !failed["page2"] {
		t.Errorf("Expected page1 and page2 to fail, got %v", failed)
	}
	if progress != 8 {
		t.Errorf("Expected 8 progress events, got %d", progress)
	}
	if last.Total != 4 || last.Finished != 4 || last.Started != 4 {
		t.Errorf("Unexpected final progress: %+v", last)
	}
}

func TestBatch_SinkErrorStops(t *testing.T) {
	p := setupPipeline(t)
	src := &memorySource{pages: []*gocv.Mat{goodPage(), goodPage(), goodPage()}}
	defer src.Close()

	stop := errors.New("disk full")
	err := p.Batch(context.Background(), src, 1, nil, func(r *dto.SheetResult) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Expected the sink error, got %v", err)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	p := setupPipeline(t)
	src := &memorySource{pages: []*gocv.Mat{goodPage(), goodPage()}}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := p.Batch(ctx, src, 1, nil, func(r *dto.SheetResult) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no pages after cancellation, got %d", calls)
	}
}

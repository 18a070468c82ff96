package pipeline

import (
	"context"
	"fmt"
	"sync"

	"omrscan/internal/dto"
	"omrscan/internal/logger"
	"omrscan/internal/service/fiducial"
	"omrscan/internal/service/normalize"
	"omrscan/internal/service/partition"
	"omrscan/internal/source"
	"omrscan/internal/template"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs detect -> normalize -> partition for one sheet template.
// It holds no per-page state and is safe for concurrent use.
type Pipeline struct {
	template    template.Template
	detector    fiducial.Detector
	partitioner *partition.Partitioner
	logger      *logger.Logger
}

// New builds the detector and region tree described by tmpl.
func New(tmpl template.Template, logger *logger.Logger) (*Pipeline, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	detector, err := fiducial.NewDetector(tmpl.Detector.Variant, tmpl.Detector.Config)
	if err != nil {
		return nil, err
	}
	l, err := tmpl.Layout()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		template:    tmpl,
		detector:    detector,
		partitioner: partition.NewPartitioner(l),
		logger:      logger,
	}, nil
}

// Template returns the template the pipeline was built from.
func (p *Pipeline) Template() template.Template {
	return p.template
}

// Process runs one raw scan through the pipeline. page is only read; the caller keeps
// ownership of it and must Close the returned result.
func (p *Pipeline) Process(name string, page gocv.Mat) (*dto.SheetResult, error) {
	detection, err := p.detector.Detect(page)
	if err != nil {
		return nil, fmt.Errorf("failed to detect fiducials: %w", err)
	}
	if detection.LowConfidence {
		p.logger.Warning("Sheet %s: low confidence page box %v-%v (defaulted: %v)",
			name, detection.Box.TopLeft, detection.Box.BottomRight, detection.Defaulted)
	}

	normalized, err := normalize.Normalize(page, detection.Box, p.template.Normalizer.Scale)
	if err != nil {
		normalized.Close()
		return nil, fmt.Errorf("failed to normalize page: %w", err)
	}

	regions, err := p.partitioner.Partition(normalized)
	if err != nil {
		normalized.Close()
		return nil, fmt.Errorf("failed to partition page: %w", err)
	}

	return &dto.SheetResult{
		Name:       name,
		Detection:  detection,
		Normalized: &normalized,
		Regions:    regions,
	}, nil
}

// Sink receives each finished page. Results with Err set carry no pixels.
// The result is closed after Sink returns; a Sink error stops the batch.
type Sink func(result *dto.SheetResult) error

// Batch processes every page of src with at most workers pages in flight.
// A page that fails to load or process is reported to sink with Err set and does not
// stop its siblings. Cancelling ctx stops scheduling new pages.
func (p *Pipeline) Batch(parent context.Context, src source.Source, workers int, progress func(dto.Progress), sink Sink) error {
	if sink == nil {
		sink = func(*dto.SheetResult) error { return nil }
	}
	total := src.PageCount()
	tracker := &tracker{progress: progress, state: dto.Progress{Total: total}}

	g, ctx := errgroup.WithContext(parent)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			break
		}
		index := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			name := src.Name(index)
			tracker.started(name)

			result := p.processPage(src, index, name)
			defer result.Close()

			if result.Err != nil {
				p.logger.Error("Sheet %s: %v", name, result.Err)
			} else {
				w, h := result.PageSize()
				p.logger.Info("Sheet %s: %d regions from %dx%d page", name, len(result.Regions), w, h)
			}

			err := sink(result)
			tracker.finished(name, result.Err)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return parent.Err()
}

func (p *Pipeline) processPage(src source.Source, index int, name string) *dto.SheetResult {
	page, err := src.Page(index)
	if err != nil {
		page.Close()
		return &dto.SheetResult{Name: name, PageIndex: index, Err: fmt.Errorf("failed to load page: %w", err)}
	}
	defer page.Close()

	result, err := p.Process(name, page)
	if err != nil {
		return &dto.SheetResult{Name: name, PageIndex: index, Err: err}
	}
	result.PageIndex = index
	return result
}

// tracker serializes progress callbacks across workers.
type tracker struct {
	mu       sync.Mutex
	progress func(dto.Progress)
	state    dto.Progress
}

func (t *tracker) started(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Started++
	t.emit(name, nil)
}

func (t *tracker) finished(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Finished++
	t.emit(name, err)
}

func (t *tracker) emit(name string, err error) {
	if t.progress == nil {
		return
	}
	event := t.state
	event.Sheet = name
	if err != nil {
		event.Error = err.Error()
	}
	t.progress(event)
}

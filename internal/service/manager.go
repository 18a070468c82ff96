package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"omrscan/internal/dto"
	"omrscan/internal/logger"
	"omrscan/internal/model"
	"omrscan/internal/raster"
	"omrscan/internal/service/pipeline"
	"omrscan/internal/service/storage"
	"omrscan/internal/service/websocket"
	"omrscan/internal/source"

	"golang.org/x/sync/semaphore"
)

// Event types sent to viewers.
const (
	EventProgress = "progress"
	EventSheet    = "sheet"
	EventFailed   = "failed"
	EventBatch    = "batch"
)

// SheetFunc is told about every page a batch finishes, saved or not.
type SheetFunc func(name string, sheet *model.Sheet, err error)

// Manager coordinates the pipeline, the region store and the viewer hub.
type Manager struct {
	pipeline *pipeline.Pipeline
	store    *storage.RegionStore
	hub      *websocket.HubService // nil when nobody watches, e.g. from the CLI
	logger   *logger.Logger

	workers int
	dpi     int
	slots   *semaphore.Weighted // ogranicza liczbę stron przetwarzanych naraz

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(p *pipeline.Pipeline, store *storage.RegionStore, hub *websocket.HubService, workers, dpi int, logger *logger.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		pipeline: p,
		store:    store,
		hub:      hub,
		logger:   logger,
		workers:  workers,
		dpi:      dpi,
		slots:    semaphore.NewWeighted(int64(workers)),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.logger.Info("Manager started with %d worker(s), template %s", workers, p.Template().Name)
	return m
}

func (m *Manager) GetStore() *storage.RegionStore {
	return m.store
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hub
}

func (m *Manager) Workers() int {
	return m.workers
}

// ProcessUpload decodes one encoded scan, runs it through the pipeline and stores it.
func (m *Manager) ProcessUpload(ctx context.Context, name string, data []byte) (*model.Sheet, error) {
	if _, err := storage.SafeName(name); err != nil {
		return nil, err
	}
	if err := m.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.slots.Release(1)

	page, err := raster.Decode(data)
	if err != nil {
		page.Close()
		m.failed(name, err)
		return nil, err
	}
	defer page.Close()

	result, err := m.pipeline.Process(name, page)
	if err != nil {
		m.failed(name, err)
		return nil, err
	}
	defer result.Close()

	sheet, err := m.store.Save(m.pipeline.Template().Name, result)
	if err != nil {
		m.failed(name, err)
		return nil, err
	}
	m.broadcast(EventSheet, sheet)
	return sheet, nil
}

// RunBatch processes and stores every page of src. Pages that fail are counted and
// reported through onSheet; only a storage failure or cancellation aborts the batch.
func (m *Manager) RunBatch(ctx context.Context, src source.Source, onSheet SheetFunc) (dto.BatchSummary, error) {
	summary := dto.BatchSummary{Total: src.PageCount()}
	var mu sync.Mutex

	progress := func(p dto.Progress) {
		m.broadcast(EventProgress, p)
	}

	sink := func(result *dto.SheetResult) error {
		if result.Err != nil {
			mu.Lock()
			summary.Failed++
			mu.Unlock()
			m.broadcast(EventFailed, dto.Progress{Sheet: result.Name, Error: result.Err.Error()})
			if onSheet != nil {
				onSheet(result.Name, nil, result.Err)
			}
			return nil
		}

		sheet, err := m.store.Save(m.pipeline.Template().Name, result)
		if err != nil {
			return err
		}
		mu.Lock()
		summary.Saved++
		mu.Unlock()
		m.broadcast(EventSheet, sheet)
		if onSheet != nil {
			onSheet(result.Name, sheet, nil)
		}
		return nil
	}

	err := m.pipeline.Batch(ctx, src, m.workers, progress, sink)

	mu.Lock()
	defer mu.Unlock()
	m.logger.Info("Batch finished: %d saved, %d failed of %d", summary.Saved, summary.Failed, summary.Total)
	m.broadcast(EventBatch, summary)
	return summary, err
}

// StartPDFBatch stores an uploaded PDF in a scratch directory and processes its pages
// in the background. It returns the page count once the document opened.
func (m *Manager) StartPDFBatch(name string, data []byte) (int, error) {
	safe, err := storage.SafeName(name)
	if err != nil {
		return 0, err
	}

	dir, err := os.MkdirTemp("", "omrscan-upload-")
	if err != nil {
		return 0, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	path := filepath.Join(dir, safe+".pdf")
	if err := os.WriteFile(path, data, 0600); err != nil {
		os.RemoveAll(dir)
		return 0, fmt.Errorf("failed to write upload: %w", err)
	}

	src, err := source.NewPDFSource(path, m.dpi)
	if err != nil {
		os.RemoveAll(dir)
		return 0, err
	}
	pages := src.PageCount()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer os.RemoveAll(dir)
		defer src.Close()

		if _, err := m.RunBatch(m.ctx, src, nil); err != nil {
			m.logger.Error("Batch %s stopped: %v", safe, err)
		}
	}()

	return pages, nil
}

// Stop cancels running batches and waits for them to finish.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	m.logger.Info("All batches stopped")
}

func (m *Manager) failed(name string, err error) {
	m.logger.Error("Sheet %s failed: %v", name, err)
	m.broadcast(EventFailed, dto.Progress{Sheet: name, Error: err.Error()})
}

func (m *Manager) broadcast(kind string, data interface{}) {
	if m.hub != nil {
		m.hub.BroadcastEvent(kind, data)
	}
}

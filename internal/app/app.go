package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"omrscan/internal/config"
	"omrscan/internal/logger"
	"omrscan/internal/repository/sqlite"
	"omrscan/internal/routes"
	"omrscan/internal/service"
	"omrscan/internal/service/pipeline"
	"omrscan/internal/service/storage"
	"omrscan/internal/service/websocket"
	"omrscan/internal/system"
	"omrscan/internal/template"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	hubService *websocket.HubService
	manager    *service.Manager
	handler    http.Handler
}

// LoadTemplate reads the sheet template at path, or returns the built-in one when path is empty.
func LoadTemplate(path string) (template.Template, error) {
	if path == "" {
		return template.Default(), nil
	}
	return template.Load(path)
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	tmpl, err := LoadTemplate(cfg.TemplatePath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	p, err := pipeline.New(tmpl, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, err
	}
	sheetRepo := sqlite.NewSheetRepository(db)
	regionRepo := sqlite.NewRegionRepository(db)

	resources := system.Probe()
	workers := system.WorkerBudget(cfg.ProcessingWorkers, resources)
	log.Info("Host: %d CPUs, %d MB available, using %d worker(s)", resources.CPUs, resources.AvailableMemory>>20, workers)

	store := storage.NewRegionStore(cfg, log, sheetRepo, regionRepo)
	hub := websocket.NewHubService(log)
	mng := service.NewManager(p, store, hub, workers, cfg.PDFDPI, log)

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		hubService: hub,
		manager:    mng,
		handler:    routes.SetupRoutes(mng, cfg, log, sheetRepo, regionRepo),
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains running batches and closes the database.
func (a *App) Run(ctx context.Context) error {
	go a.hubService.Run(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: a.handler,
	}

	fmt.Printf("📝 OMR Scan Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Output: %s\n", a.config.OutputDirectory)
	fmt.Printf("🗄  Database: %s\n", a.config.DatabasePath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = server.Shutdown(shutdownCtx)
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	a.manager.Stop()
	a.db.Close()
	a.logger.Info("Server stopped")
	a.logger.Close()
	return err
}

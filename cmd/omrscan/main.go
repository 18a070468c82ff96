package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"omrscan/internal/app"
	"omrscan/internal/config"
	"omrscan/internal/geometry"
	"omrscan/internal/logger"
	"omrscan/internal/model"
	"omrscan/internal/raster"
	"omrscan/internal/repository/sqlite"
	"omrscan/internal/service"
	"omrscan/internal/service/pipeline"
	"omrscan/internal/service/storage"
	"omrscan/internal/source"
	"omrscan/internal/system"
	"omrscan/internal/template"
)

// A4 at 300 DPI.
const (
	calibrationWidth  = 2480
	calibrationHeight = 3508
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	input := flag.String("input", "", "Scan image, directory of scans or PDF")
	templatePath := flag.String("template", cfg.TemplatePath, "Sheet template YAML (empty: built-in standard sheet)")
	outDir := flag.String("out", cfg.OutputDirectory, "Output directory for region images")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path (empty: write files only)")
	workers := flag.Int("workers", cfg.ProcessingWorkers, "Pages processed in parallel (0: from CPU and memory)")
	dpi := flag.Int("dpi", cfg.PDFDPI, "Render resolution for PDF scans")
	dumpTemplate := flag.String("dump-template", "", "Write the built-in template to this path and exit")
	calibration := flag.String("calibration", "", "Write a printable calibration sheet PNG to this path and exit")
	flag.Parse()

	if *dumpTemplate != "" {
		if err := template.Write(template.Default(), *dumpTemplate); err != nil {
			log.Fatalf("Failed to write template: %v", err)
		}
		fmt.Printf("📄 Template written to %s\n", *dumpTemplate)
		return 0
	}

	tmpl, err := app.LoadTemplate(*templatePath)
	if err != nil {
		log.Fatalf("Failed to load template: %v", err)
	}

	if *calibration != "" {
		if err := writeCalibration(*calibration, tmpl.Name); err != nil {
			log.Fatalf("Failed to write calibration sheet: %v", err)
		}
		fmt.Printf("🎯 Calibration sheet written to %s\n", *calibration)
		return 0
	}

	if *input == "" {
		flag.Usage()
		return 2
	}

	cfg.OutputDirectory = *outDir
	cfg.DatabasePath = *dbPath
	logs := logger.NewLogger(cfg)
	defer logs.Close()

	p, err := pipeline.New(tmpl, logs)
	if err != nil {
		log.Fatalf("Invalid template: %v", err)
	}

	var store *storage.RegionStore
	if *dbPath != "" {
		db, err := sqlite.New(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		store = storage.NewRegionStore(cfg, logs, sqlite.NewSheetRepository(db), sqlite.NewRegionRepository(db))
	} else {
		store = storage.NewRegionStore(cfg, logs, nil, nil)
	}

	src, err := source.Open(*input, *dpi)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *input, err)
	}
	defer src.Close()

	n := system.WorkerBudget(*workers, system.Probe())
	manager := service.NewManager(p, store, nil, n, *dpi, logs)
	defer manager.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🔍 %s: %d page(s), template %s, %d worker(s)\n", *input, src.PageCount(), tmpl.Name, n)

	summary, err := manager.RunBatch(ctx, src, func(name string, sheet *model.Sheet, err error) {
		if err != nil {
			fmt.Printf("❌ %s: %v\n", name, err)
			return
		}
		note := ""
		if sheet.LowConfidence {
			note = fmt.Sprintf(" (low confidence: %s)", sheet.Defaulted)
		}
		fmt.Printf("✅ %s: %d regions -> %s%s\n", name, sheet.RegionCount, sheet.Directory, note)
	})

	fmt.Printf("📊 %d saved, %d failed of %d\n", summary.Saved, summary.Failed, summary.Total)
	if err != nil {
		log.Printf("Batch stopped: %v", err)
		return 1
	}
	if summary.Failed > 0 {
		return 1
	}
	return 0
}

// writeCalibration renders a blank A4 sheet with both fiducials and a QR code naming the template.
func writeCalibration(path, templateName string) error {
	sheet := raster.CalibrationSheet(calibrationWidth, calibrationHeight,
		geometry.Point{X: 100, Y: 100},
		geometry.Point{X: calibrationWidth - 100, Y: calibrationHeight - 100})
	defer sheet.Close()

	qrArea := image.Rect(100, calibrationHeight-500, 400, calibrationHeight-200)
	if err := raster.StampQR(&sheet, templateName, qrArea); err != nil {
		return err
	}

	data, err := raster.EncodePNG(sheet)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

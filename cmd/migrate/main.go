package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"omrscan/internal/app"
	"omrscan/internal/config"
	"omrscan/internal/dto"
	"omrscan/internal/logger"
	"omrscan/internal/repository/sqlite"
	"omrscan/internal/service/storage"
)

// migrate records sheet directories that exist under the output directory but not in
// the database, e.g. after the database file was lost or the output was copied over.
func main() {
	cfg := config.Load()

	outDir := flag.String("out", cfg.OutputDirectory, "Directory containing processed sheets")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	templatePath := flag.String("template", cfg.TemplatePath, "Template the sheets were processed with")
	flag.Parse()

	fmt.Printf("Migrating sheets from %s to database %s\n", *outDir, *dbPath)

	tmpl, err := app.LoadTemplate(*templatePath)
	if err != nil {
		log.Fatalf("Failed to load template: %v", err)
	}
	l, err := tmpl.Layout()
	if err != nil {
		log.Fatalf("Invalid template: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	cfg.OutputDirectory = *outDir
	sheets := sqlite.NewSheetRepository(db)
	store := storage.NewRegionStore(cfg, logger.NewDiscard(), sheets, sqlite.NewRegionRepository(db))

	dirs, err := store.SheetDirs()
	if err != nil {
		log.Fatalf("Failed to read output directory: %v", err)
	}

	imported, existing, skipped := 0, 0, 0
	for _, dir := range dirs {
		sheet, added, err := store.Import(dir, l, tmpl.Name)
		switch {
		case errors.Is(err, storage.ErrNotASheet):
			skipped++
		case err != nil:
			log.Printf("⚠️  Skipping %s: %v", dir, err)
			skipped++
		case added:
			imported++
			fmt.Printf("   + %s (%d regions)\n", sheet.Name, sheet.RegionCount)
		default:
			existing++
		}
	}

	if imported == 0 {
		fmt.Println("No new sheets found to migrate")
	} else {
		fmt.Printf("✅ Successfully migrated %d sheets to database\n", imported)
	}
	if existing > 0 {
		fmt.Printf("ℹ️  %d sheets were already recorded\n", existing)
	}
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d directories (no page image or errors)\n", skipped)
	}

	total, err := sheets.GetTotalCount(&dto.SheetFilters{})
	if err == nil {
		low, _ := sheets.GetTotalCount(&dto.SheetFilters{LowConfidence: true})
		fmt.Printf("\n📊 Database Statistics:\n")
		fmt.Printf("   Total sheets: %d\n", total)
		fmt.Printf("   Low confidence: %d\n", low)
	}
}

package sqlite

import (
	"fmt"

	"omrscan/internal/model"
)

// RegionRepository implements repository.RegionRepository for SQLite.
type RegionRepository struct {
	db *DB
}

// NewRegionRepository creates a new SQLite region repository.
func NewRegionRepository(db *DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// InsertBatch adds multiple regions in a single transaction.
func (r *RegionRepository) InsertBatch(regions []model.Region) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO regions (sheet_id, idx, name, kind, parent, grid_row, grid_col, x, y, width, height, filepath)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, reg := range regions {
		if _, err := stmt.Exec(reg.SheetID, reg.Index, reg.Name, reg.Kind, reg.Parent, reg.Row, reg.Col,
			reg.X, reg.Y, reg.Width, reg.Height, reg.FilePath); err != nil {
			return fmt.Errorf("failed to insert region %s: %w", reg.Name, err)
		}
	}

	return tx.Commit()
}

// GetBySheetID retrieves all regions of a sheet in layout order.
func (r *RegionRepository) GetBySheetID(sheetID int64) ([]model.Region, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, sheet_id, idx, name, kind, parent, grid_row, grid_col, x, y, width, height, filepath
		FROM regions WHERE sheet_id = ? ORDER BY idx
	`, sheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	var regions []model.Region
	for rows.Next() {
		var reg model.Region
		if err := rows.Scan(&reg.ID, &reg.SheetID, &reg.Index, &reg.Name, &reg.Kind, &reg.Parent, &reg.Row, &reg.Col,
			&reg.X, &reg.Y, &reg.Width, &reg.Height, &reg.FilePath); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, reg)
	}

	return regions, rows.Err()
}

// DeleteBySheetID removes all regions of a sheet.
func (r *RegionRepository) DeleteBySheetID(sheetID int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM regions WHERE sheet_id = ?`, sheetID); err != nil {
		return fmt.Errorf("failed to delete regions: %w", err)
	}
	return nil
}

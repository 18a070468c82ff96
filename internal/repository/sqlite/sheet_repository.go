package sqlite

import (
	"database/sql"
	"fmt"

	"omrscan/internal/dto"
	"omrscan/internal/model"
)

const sheetColumns = `s.id, s.name, s.template, s.processed_at, s.page_width, s.page_height,
		s.top_left_x, s.top_left_y, s.bottom_right_x, s.bottom_right_y,
		s.low_confidence, s.defaulted, s.directory,
		(SELECT COUNT(*) FROM regions r WHERE r.sheet_id = s.id)`

// SheetRepository implements repository.SheetRepository for SQLite.
type SheetRepository struct {
	db *DB
}

// NewSheetRepository creates a new SQLite sheet repository.
func NewSheetRepository(db *DB) *SheetRepository {
	return &SheetRepository{db: db}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSheet(row scanner) (*model.Sheet, error) {
	var s model.Sheet
	err := row.Scan(&s.ID, &s.Name, &s.Template, &s.ProcessedAt, &s.PageWidth, &s.PageHeight,
		&s.TopLeftX, &s.TopLeftY, &s.BottomRightX, &s.BottomRightY,
		&s.LowConfidence, &s.Defaulted, &s.Directory, &s.RegionCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Insert adds a new sheet record to the database.
func (r *SheetRepository) Insert(sheet *model.Sheet) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO sheets (name, template, processed_at, page_width, page_height,
			top_left_x, top_left_y, bottom_right_x, bottom_right_y,
			low_confidence, defaulted, directory)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sheet.Name, sheet.Template, sheet.ProcessedAt, sheet.PageWidth, sheet.PageHeight,
		sheet.TopLeftX, sheet.TopLeftY, sheet.BottomRightX, sheet.BottomRightY,
		sheet.LowConfidence, sheet.Defaulted, sheet.Directory)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sheet: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a sheet by its ID.
func (r *SheetRepository) GetByID(id int64) (*model.Sheet, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	sheet, err := scanSheet(r.db.Conn().QueryRow(`SELECT `+sheetColumns+` FROM sheets s WHERE s.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet: %w", err)
	}
	return sheet, nil
}

// GetByName retrieves a sheet by its name.
func (r *SheetRepository) GetByName(name string) (*model.Sheet, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	sheet, err := scanSheet(r.db.Conn().QueryRow(`SELECT `+sheetColumns+` FROM sheets s WHERE s.name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet: %w", err)
	}
	return sheet, nil
}

// filterClause builds the WHERE conditions shared by GetAll and GetTotalCount.
func filterClause(filter *dto.SheetFilters) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Template != "" {
		query += " AND s.template = ?"
		args = append(args, filter.Template)
	}

	if filter.Name != "" {
		query += " AND s.name LIKE ?"
		args = append(args, "%"+filter.Name+"%")
	}

	if !filter.After.IsZero() {
		query += " AND DATETIME(s.processed_at) >= DATETIME(?)"
		args = append(args, filter.After)
	}

	if !filter.Before.IsZero() {
		query += " AND DATETIME(s.processed_at) <= DATETIME(?)"
		args = append(args, filter.Before)
	}

	if filter.LowConfidence {
		query += " AND s.low_confidence = 1"
	}

	return query, args
}

// GetAll retrieves sheets based on filter criteria, newest first.
func (r *SheetRepository) GetAll(filter *dto.SheetFilters) ([]model.Sheet, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)
	query := `SELECT ` + sheetColumns + ` FROM sheets s` + where + ` ORDER BY s.processed_at DESC, s.id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sheets: %w", err)
	}
	defer rows.Close()

	var sheets []model.Sheet
	for rows.Next() {
		sheet, err := scanSheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sheet: %w", err)
		}
		sheets = append(sheets, *sheet)
	}

	return sheets, rows.Err()
}

// GetTotalCount returns the total count of sheets matching the filter.
func (r *SheetRepository) GetTotalCount(filter *dto.SheetFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM sheets s`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sheets: %w", err)
	}

	return count, nil
}

// Delete removes a sheet and its regions.
func (r *SheetRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM regions WHERE sheet_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete regions: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM sheets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete sheet: %w", err)
	}
	return nil
}

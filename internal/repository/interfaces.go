package repository

import (
	"omrscan/internal/dto"
	"omrscan/internal/model"
)

// SheetRepository defines the interface for processed sheet records.
type SheetRepository interface {
	// Create operations
	Insert(sheet *model.Sheet) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Sheet, error)
	GetByName(name string) (*model.Sheet, error)
	GetAll(filter *dto.SheetFilters) ([]model.Sheet, error)
	GetTotalCount(filter *dto.SheetFilters) (int, error)

	// Delete operations
	Delete(id int64) error
}

// RegionRepository defines the interface for extracted region records.
type RegionRepository interface {
	// Create operations
	InsertBatch(regions []model.Region) error

	// Read operations
	GetBySheetID(sheetID int64) ([]model.Region, error)

	// Delete operations
	DeleteBySheetID(sheetID int64) error
}

package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"omrscan/internal/config"
	"omrscan/internal/dto"
	"omrscan/internal/geometry"
	"omrscan/internal/logger"
	"omrscan/internal/repository"
	"omrscan/internal/service"
	"omrscan/internal/service/fiducial"
	"omrscan/internal/service/normalize"
	"omrscan/internal/service/storage"
)

// SheetsHandler dispatches /api/sheets by method: GET lists, POST uploads, DELETE removes.
func SheetsHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger,
	sheetRepo repository.SheetRepository) http.HandlerFunc {
	list := ListSheetsHandler(manager, logger, sheetRepo)
	upload := UploadSheetHandler(manager, cfg, logger)
	remove := DeleteSheetHandler(manager, logger)

	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r)
		case http.MethodPost:
			upload(w, r)
		case http.MethodDelete:
			remove(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// UploadSheetHandler accepts a raw scan as the request body. Images are processed
// right away; a PDF is queued as a batch whose progress is sent over /api/progress.
func UploadSheetHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "upload_" + time.Now().Format("2006-01-02_15-04-05")
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize<<20)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Scan too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Unable to read scan", http.StatusBadRequest)
			return
		}
		if len(data) == 0 {
			http.Error(w, "Empty scan", http.StatusBadRequest)
			return
		}

		if isPDF(data) {
			pages, err := manager.StartPDFBatch(name, data)
			if err != nil {
				logger.Error("Failed to queue %s: %v", name, err)
				http.Error(w, err.Error(), statusFor(err))
				return
			}
			writeJSON(w, logger, http.StatusAccepted, map[string]interface{}{"status": "queued", "name": name, "pages": pages})
			return
		}

		sheet, err := manager.ProcessUpload(r.Context(), name, data)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, logger, http.StatusCreated, sheet)
	}
}

// ListSheetsHandler returns a filtered, paginated list of processed sheets.
func ListSheetsHandler(manager *service.Manager, logger *logger.Logger, sheetRepo repository.SheetRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &dto.SheetFilters{
			Template:      q.Get("template"),
			Name:          q.Get("name"),
			After:         parseDate(q.Get("dateAfter")),
			Before:        parseDate(q.Get("dateBefore")),
			LowConfidence: q.Get("lowConfidence") == "true",
			Limit:         limit,
			Offset:        (page - 1) * limit,
		}
		if !filter.Before.IsZero() {
			filter.Before = filter.Before.Add(24*time.Hour - time.Second)
		}

		sheets, err := sheetRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying sheets from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := sheetRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting sheets: %v", err)
			totalCount = len(sheets)
		}

		infos := make([]dto.SheetInfo, 0, len(sheets))
		for _, s := range sheets {
			infos = append(infos, dto.SheetInfo{
				ID:            s.ID,
				Name:          s.Name,
				Template:      s.Template,
				ProcessedAt:   s.ProcessedAt,
				Regions:       s.RegionCount,
				LowConfidence: s.LowConfidence,
			})
		}

		writeJSON(w, logger, http.StatusOK, dto.SheetsData{
			Sheets:      infos,
			OutputDir:   manager.GetStore().OutputDir(),
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// DeleteSheetHandler removes a sheet with its regions from disk and database.
func DeleteSheetHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "Sheet id required", http.StatusBadRequest)
			return
		}

		if err := manager.GetStore().Delete(id); err != nil {
			logger.Error("Failed to delete sheet %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]interface{}{"status": "deleted", "id": id})
	}
}

// RegionsHandler returns the region records of one sheet.
func RegionsHandler(logger *logger.Logger, sheetRepo repository.SheetRepository, regionRepo repository.RegionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "Sheet id required", http.StatusBadRequest)
			return
		}

		sheet, err := sheetRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading sheet %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if sheet == nil {
			http.NotFound(w, r)
			return
		}

		regions, err := regionRepo.GetBySheetID(id)
		if err != nil {
			logger.Error("Error loading regions of sheet %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, http.StatusOK, map[string]interface{}{"sheet": sheet, "regions": regions})
	}
}

// ViewRegionHandler serves a region image, or the normalized page when index is absent.
func ViewRegionHandler(logger *logger.Logger, sheetRepo repository.SheetRepository, regionRepo repository.RegionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		id, err := strconv.ParseInt(q.Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "Sheet id required", http.StatusBadRequest)
			return
		}

		sheet, err := sheetRepo.GetByID(id)
		if err != nil || sheet == nil {
			http.NotFound(w, r)
			return
		}

		if q.Get("index") == "" {
			http.ServeFile(w, r, filepath.Join(sheet.Directory, storage.PageFile))
			return
		}

		index, err := strconv.Atoi(q.Get("index"))
		if err != nil {
			http.Error(w, "Invalid region index", http.StatusBadRequest)
			return
		}
		regions, err := regionRepo.GetBySheetID(id)
		if err != nil {
			logger.Error("Error loading regions of sheet %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		for _, region := range regions {
			if region.Index == index {
				http.ServeFile(w, r, region.FilePath)
				return
			}
		}
		http.NotFound(w, r)
	}
}

// statusFor maps processing errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrInvalidSheetName):
		return http.StatusBadRequest
	case errors.Is(err, fiducial.ErrNoMarkerFound),
		errors.Is(err, geometry.ErrDegenerateBoundingBox),
		errors.Is(err, geometry.ErrOutOfBoundsCrop),
		errors.Is(err, geometry.ErrEmptyRaster),
		errors.Is(err, normalize.ErrInvalidScale):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}

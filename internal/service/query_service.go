package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chxru/sem5-webdev/internal/domain"
	"github.com/chxru/sem5-webdev/internal/repository"
	"github.com/chxru/sem5-webdev/internal/store"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// BedBoardCacheKey cache key for the serialized bed board. The allocation
// service deletes it after every admit/discharge.
const BedBoardCacheKey = "hms:stats:beds"

const bedBoardCacheTTL = 5 * time.Second

// QueryService read-only accessors. Bypasses the allocation engine and
// never opens a transaction.
type QueryService struct {
	patients repository.PatientsRepository
	tickets  repository.BedTicketsRepository
	kv       store.KV
	logger   *zap.Logger
}

func NewQueryService(
	patients repository.PatientsRepository,
	tickets repository.BedTicketsRepository,
	kv store.KV,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{patients: patients, tickets: tickets, kv: kv, logger: logger}
}

// GetPatient fetches and decrypts one patient document.
func (s *QueryService) GetPatient(ctx context.Context, id int) (*domain.PatientRecord, error) {
	if id <= 0 {
		return nil, fmt.Errorf("patient id %d: %w", id, domain.ErrInvalidID)
	}
	return s.patients.GetPatient(ctx, id)
}

// Search case-insensitive substring match on the clear-text name index.
func (s *QueryService) Search(ctx context.Context, fragment string) ([]domain.SearchResult, error) {
	return s.patients.SearchPatients(ctx, fragment)
}

// BedBoard returns the occupancy board, served from cache when fresh.
func (s *QueryService) BedBoard(ctx context.Context) ([]domain.BedOccupancy, error) {
	if s.kv != nil {
		if cached, err := s.kv.Get(ctx, BedBoardCacheKey); err == nil {
			var beds []domain.BedOccupancy
			if err := json.Unmarshal([]byte(cached), &beds); err == nil {
				return beds, nil
			}
		} else if err != store.ErrMiss {
			s.logger.Warn("bed board cache read failed", zap.Error(err))
		}
	}

	beds, err := s.tickets.ListBeds(ctx)
	if err != nil {
		return nil, err
	}

	if s.kv != nil {
		if raw, err := json.Marshal(beds); err == nil {
			if err := s.kv.Set(ctx, BedBoardCacheKey, string(raw), bedBoardCacheTTL); err != nil {
				s.logger.Warn("bed board cache write failed", zap.Error(err))
			}
		}
	}
	return beds, nil
}

// StatsSummary dashboard counters.
type StatsSummary struct {
	TotalPatients int `json:"total_patients"`
	TotalBeds     int `json:"total_beds"`
	OccupiedBeds  int `json:"occupied_beds"`
	FreeBeds      int `json:"free_beds"`
}

func (s *QueryService) Stats(ctx context.Context) (*StatsSummary, error) {
	patients, err := s.patients.CountPatients(ctx)
	if err != nil {
		return nil, err
	}
	beds, err := s.tickets.ListBeds(ctx)
	if err != nil {
		return nil, err
	}

	occupied := 0
	for i := range beds {
		if beds[i].Occupied() {
			occupied++
		}
	}
	return &StatsSummary{
		TotalPatients: patients,
		TotalBeds:     len(beds),
		OccupiedBeds:  occupied,
		FreeBeds:      len(beds) - occupied,
	}, nil
}

var bedBoardExportHeader = []string{"Bed", "Patient ID", "Patient Name", "Bed Ticket", "Updated On"}

// ExportBedBoard renders the occupancy board as an xlsx workbook.
func (s *QueryService) ExportBedBoard(ctx context.Context) ([]byte, error) {
	beds, err := s.BedBoard(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Bed Board"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for col, h := range bedBoardExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, bed := range beds {
		values := []any{bed.BedID, "", "", "", bed.UpdatedAt.Format(time.RFC3339)}
		if bed.PatientID != nil {
			values[1] = *bed.PatientID
		}
		if bed.PatientName != nil {
			values[2] = *bed.PatientName
		}
		if bed.StayID != nil {
			values[3] = *bed.StayID
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write bed row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

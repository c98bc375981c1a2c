package rider

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	tenantdomain "github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/tenant"
)

var ErrNotFound = errors.New("rider not found")

var expectedHeaders = []string{
	"external_rider_id",
	"city_id",
	"cash_balance_minor",
	"deliveries_completed",
}

type Repository interface {
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]Entity, error)
	GetByID(ctx context.Context, tenantID int64, riderID string) (*Entity, error)
	SetStatus(ctx context.Context, tenantID int64, riderID, status, reason string) error
	UpsertMetrics(ctx context.Context, tenantID int64, in MetricsInput) error
	CountByStatus(ctx context.Context, tenantID int64, status string) (int64, error)
}

type TenantRepository interface {
	GetByID(ctx context.Context, tenantID int64) (*tenantdomain.Entity, error)
}

type Service struct {
	riderRepo  Repository
	tenantRepo TenantRepository
}

func NewService(riderRepo Repository, tenantRepo TenantRepository) *Service {
	return &Service{riderRepo: riderRepo, tenantRepo: tenantRepo}
}

func (s *Service) ListRiders(ctx context.Context, tenantID int64, filter ListFilter) ([]Entity, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.riderRepo.List(ctx, tenantID, filter)
}

func (s *Service) GetRider(ctx context.Context, tenantID int64, riderID string) (*Entity, error) {
	return s.riderRepo.GetByID(ctx, tenantID, riderID)
}

func (s *Service) BlockRider(ctx context.Context, tenantID int64, riderID, reason string) error {
	if strings.TrimSpace(riderID) == "" {
		return fmt.Errorf("missing_rider_id")
	}
	return s.riderRepo.SetStatus(ctx, tenantID, riderID, StatusBlocked, strings.TrimSpace(reason))
}

func (s *Service) UnblockRider(ctx context.Context, tenantID int64, riderID string) error {
	if strings.TrimSpace(riderID) == "" {
		return fmt.Errorf("missing_rider_id")
	}
	return s.riderRepo.SetStatus(ctx, tenantID, riderID, StatusActive, "")
}

// IngestMetricsCSV applies a metrics export from the delivery platform to the
// tenant's riders. Row failures are collected, not fatal; the valid rows of a
// partially bad file are still applied.
func (s *Service) IngestMetricsCSV(ctx context.Context, tenantID int64, csvReader io.Reader) (*UploadResult, error) {
	reader := csv.NewReader(csvReader)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid_csv")
	}
	if len(rows) < 2 {
		return &UploadResult{Errors: []ValidationError{{Row: 1, Field: "file", Message: "csv must include header and at least one data row"}}}, nil
	}

	if err := validateHeader(rows[0]); err != nil {
		return &UploadResult{Errors: []ValidationError{{Row: 1, Field: "header", Message: err.Error()}}}, nil
	}

	result := &UploadResult{Errors: []ValidationError{}}
	for i := 1; i < len(rows); i++ {
		rowNum := i + 1

		parsed, validationErr := parseMetricsRow(rows[i])
		if validationErr != nil {
			result.Errors = append(result.Errors, ValidationError{Row: rowNum, Field: validationErr.Field, Message: validationErr.Message})
			continue
		}

		if err := s.riderRepo.UpsertMetrics(ctx, tenantID, *parsed); err != nil {
			return nil, err
		}
		result.Processed++
	}

	return result, nil
}

func (s *Service) Capacity(ctx context.Context, tenantID int64) (*CapacityStatus, error) {
	t, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	active, err := s.riderRepo.CountByStatus(ctx, tenantID, StatusActive)
	if err != nil {
		return nil, err
	}
	return &CapacityStatus{
		TenantID:     tenantID,
		ActiveRiders: active,
		RiderLimit:   t.RiderLimit,
		AtLimit:      t.RiderLimit > 0 && active >= int64(t.RiderLimit),
	}, nil
}

func validateHeader(header []string) error {
	if len(header) != len(expectedHeaders) {
		return fmt.Errorf("expected %d columns, got %d", len(expectedHeaders), len(header))
	}
	for i, want := range expectedHeaders {
		got := strings.ToLower(strings.TrimSpace(header[i]))
		if got != want {
			return fmt.Errorf("column %d must be %q", i+1, want)
		}
	}
	return nil
}

func parseMetricsRow(record []string) (*MetricsInput, *ValidationError) {
	if len(record) != len(expectedHeaders) {
		return nil, &ValidationError{Field: "row", Message: "wrong column count"}
	}

	externalID := strings.TrimSpace(record[0])
	if externalID == "" {
		return nil, &ValidationError{Field: "external_rider_id", Message: "must not be empty"}
	}

	cityID, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil || cityID <= 0 {
		return nil, &ValidationError{Field: "city_id", Message: "must be a positive integer"}
	}

	cashMinor, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
	if err != nil || cashMinor < 0 {
		return nil, &ValidationError{Field: "cash_balance_minor", Message: "must be a non-negative integer"}
	}

	deliveries, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 32)
	if err != nil || deliveries < 0 {
		return nil, &ValidationError{Field: "deliveries_completed", Message: "must be a non-negative integer"}
	}

	return &MetricsInput{
		ExternalRiderID:  externalID,
		CityID:           cityID,
		CashBalanceMinor: cashMinor,
		DeliveriesTotal:  int32(deliveries),
	}, nil
}

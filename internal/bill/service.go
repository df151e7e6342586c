package bill

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/billed/internal/errs"
	"github.com/zombor/billed/internal/scanning"
)

// IDGenerator generates unique IDs for bills
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service is the bills store: it owns bill records and their receipt files
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	publicURL   string
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a Service. scanner may be nil. publicURL is the base
// that receipt file URLs are built on.
func NewService(db DB, scanner scanning.Scanner, storage Storage, publicURL string) *Service {
	return NewServiceWithDeps(db, scanner, storage, publicURL, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, publicURL string, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		publicURL:   strings.TrimRight(publicURL, "/"),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

func (s *Service) fileURL(id string) string {
	return fmt.Sprintf("%s/files/%s", s.publicURL, id)
}

// List returns the finalized bills in creation order. Drafts left behind by
// an unfinished submission are not listed.
func (s *Service) List(ctx context.Context) ([]Bill, error) {
	records, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	bills := make([]Bill, 0, len(records))
	for _, record := range records {
		if record.Draft {
			continue
		}
		bills = append(bills, record.Bill)
	}
	return bills, nil
}

// Get returns a single bill, drafts included
func (s *Service) Get(ctx context.Context, id string) (*Bill, error) {
	record, err := s.db.GetBill(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return &record.Bill, nil
}

// Create stores the receipt and a draft bill for it, and returns the
// receipt URL and the new bill ID.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if !IsPicture(req.File.ContentType) {
		return nil, errs.NewValidationError(InvalidFormatMessage)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, errs.NewValidationError("email is required")
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	storedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(req.File.Name)), req.File.Data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	record := &Record{
		Bill: Bill{
			ID:       id,
			Email:    req.Email,
			FileURL:  s.fileURL(id),
			FileName: req.File.Name,
		},
		Draft:       true,
		StoredName:  storedName,
		ContentType: req.File.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveBill(record); err != nil {
		s.storage.Delete(storedName)
		return nil, fmt.Errorf("saving bill: %w", err)
	}

	return &CreateResult{
		FileURL:    record.FileURL,
		Key:        id,
		Suggestion: s.suggest(ctx, req.File),
	}, nil
}

// suggest scans the receipt when a scanner is configured. Scanning is a
// convenience; failures are logged and otherwise ignored.
func (s *Service) suggest(ctx context.Context, file File) *Suggestion {
	if s.scanner == nil {
		return nil
	}

	data, err := s.scanner.ScanReceipt(ctx, file.Data, file.ContentType)
	if err != nil {
		FromContext(ctx).Warn("Failed to scan receipt",
			"filename", file.Name,
			"content_type", file.ContentType,
			"file_size", len(file.Data),
			"error", err,
		)
		return nil
	}

	return &Suggestion{
		Name:   data.Name,
		Date:   data.Date,
		Amount: data.Amount,
		Type:   data.Type,
	}
}

// Update fills in the bill addressed by the selector and finalizes it. A
// draft always becomes pending; the review status and admin comment are
// never taken from the request.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Bill, error) {
	if strings.TrimSpace(req.Selector) == "" {
		return nil, errs.NewValidationError("selector is required")
	}

	record, err := s.db.GetBill(req.Selector)
	if err != nil {
		return nil, fmt.Errorf("getting bill for update: %w", err)
	}

	data := req.Data
	data.ID = record.ID
	if data.FileURL == "" {
		data.FileURL = record.FileURL
	}
	if data.FileName == "" {
		data.FileName = record.FileName
	}
	if data.Email == "" {
		data.Email = record.Email
	}
	// review fields belong to the reviewer, not the submitter
	data.Status = record.Status
	if record.Draft || data.Status == "" {
		data.Status = StatusPending
	}
	data.CommentAdmin = record.CommentAdmin

	record.Bill = data
	record.Draft = false
	record.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveBill(record); err != nil {
		return nil, fmt.Errorf("updating bill: %w", err)
	}
	return &record.Bill, nil
}

// GetFile returns a bill's receipt and its content type
func (s *Service) GetFile(ctx context.Context, id string) ([]byte, string, error) {
	record, err := s.db.GetBill(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting bill: %w", err)
	}
	if record.StoredName == "" {
		return nil, "", errs.NewNotFoundError(fmt.Sprintf("no receipt for bill: %s", id))
	}

	data, err := s.storage.Get(record.StoredName)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}
	return data, record.ContentType, nil
}

// Delete removes a bill and its receipt
func (s *Service) Delete(ctx context.Context, id string) error {
	record, err := s.db.GetBill(id)
	if err != nil {
		return fmt.Errorf("getting bill for deletion: %w", err)
	}

	if record.StoredName != "" {
		if err := s.storage.Delete(record.StoredName); err != nil {
			FromContext(ctx).Warn("Failed to delete file", "filename", record.StoredName, "error", err)
		}
	}

	if err := s.db.DeleteBill(id); err != nil {
		return fmt.Errorf("deleting bill: %w", err)
	}
	return nil
}

package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
	"github.com/mathsia/memocard-service/internal/utils"
)

// ImportExportService handles bulk file operations on the card catalog.
type ImportExportService interface {
	ImportMemocardsFromCSV(ctx context.Context, reader io.Reader, creatorID string) (*ImportResult, error)
	ImportMemocardsFromExcel(ctx context.Context, reader io.Reader, creatorID string) (*ImportResult, error)

	ExportMemocardsToCSV(ctx context.Context, filters repositories.MemocardFilters) ([]byte, error)
	ExportMemocardsToExcel(ctx context.Context, filters repositories.MemocardFilters) ([]byte, error)
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

type ImportResult struct {
	TotalRows    int                `json:"total_rows"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Errors       []ImportRowError   `json:"errors,omitempty"`
	Memocards    []*models.Memocard `json:"memocards,omitempty"`
}

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

var exportHeaders = []string{
	"Title", "Description", "Level", "Difficulty", "Subject", "Chapter",
	"Type", "Active", "Content", "Tags",
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportMemocardsFromCSV(ctx context.Context, reader io.Reader, creatorID string) (*ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return s.importRows(ctx, records, creatorID)
}

func (s *importExportService) ImportMemocardsFromExcel(ctx context.Context, reader io.Reader, creatorID string) (*ImportResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: Excel file has no sheets", ErrValidationFailed)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return s.importRows(ctx, rows, creatorID)
}

func (s *importExportService) importRows(ctx context.Context, rows [][]string, creatorID string) (*ImportResult, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: file must have a header row and at least one data row", ErrValidationFailed)
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"title", "level", "difficulty", "subject", "type", "content"} {
		if _, ok := headerMap[col]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q", ErrValidationFailed, col)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}

	for rowIndex, record := range rows[1:] {
		memocard, rowErrors := s.parseRow(record, headerMap, rowIndex+2, creatorID)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}
		if err := s.repo.Memocard().Create(ctx, memocard); err != nil {
			result.Errors = append(result.Errors, ImportRowError{
				Row: rowIndex + 2, Column: "", Message: err.Error(),
			})
			result.ErrorCount++
			continue
		}
		result.Memocards = append(result.Memocards, memocard)
		result.SuccessCount++
	}

	s.logger.Info("Memocard import completed",
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount,
		"creator_id", creatorID)

	return result, nil
}

func (s *importExportService) parseRow(record []string, headerMap map[string]int, rowNum int, creatorID string) (*models.Memocard, []ImportRowError) {
	var rowErrors []ImportRowError

	getColumn := func(name string) string {
		if index, ok := headerMap[name]; ok && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}
	addError := func(column, message, value string) {
		rowErrors = append(rowErrors, ImportRowError{Row: rowNum, Column: column, Message: message, Value: value})
	}

	title := getColumn("title")
	if title == "" {
		addError("title", "required field", title)
	}

	level := models.SchoolLevel(getColumn("level"))
	if !models.IsValidSchoolLevel(level) {
		addError("level", "unknown school level", string(level))
	}

	difficulty := models.DifficultyLevel(strings.ToLower(getColumn("difficulty")))
	if !models.IsValidDifficultyLevel(difficulty) {
		addError("difficulty", "unknown difficulty", string(difficulty))
	}

	subject := getColumn("subject")
	if subject == "" {
		addError("subject", "required field", subject)
	}

	cardType := models.MemocardType(strings.ToLower(getColumn("type")))
	if !models.IsValidMemocardType(cardType) {
		addError("type", "unknown memocard type", string(cardType))
	}

	content := getColumn("content")
	if content == "" {
		addError("content", "required field", content)
	} else if models.IsValidMemocardType(cardType) {
		if err := s.validator.ValidateMemocardContent(cardType, json.RawMessage(content)); err != nil {
			addError("content", err.Error(), content)
		}
	}

	if len(rowErrors) > 0 {
		return nil, rowErrors
	}

	isActive := true
	if activeStr := getColumn("active"); activeStr != "" {
		if parsed, err := strconv.ParseBool(activeStr); err == nil {
			isActive = parsed
		}
	}

	var tags datatypes.JSON
	if tagsStr := getColumn("tags"); tagsStr != "" {
		parts := strings.Split(tagsStr, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if data, err := json.Marshal(parts); err == nil {
			tags = datatypes.JSON(data)
		}
	}

	return &models.Memocard{
		Title:       title,
		Description: getColumn("description"),
		Level:       level,
		Difficulty:  difficulty,
		Subject:     subject,
		Chapter:     getColumn("chapter"),
		Type:        cardType,
		IsActive:    isActive,
		Content:     datatypes.JSON(content),
		Tags:        tags,
		CreatedBy:   creatorID,
	}, nil
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportMemocardsToCSV(ctx context.Context, filters repositories.MemocardFilters) ([]byte, error) {
	memocards, err := s.getMemocardsForExport(ctx, filters)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, memocard := range memocards {
		if err := writer.Write(s.memocardToRow(memocard)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return []byte(buf.String()), nil
}

func (s *importExportService) ExportMemocardsToExcel(ctx context.Context, filters repositories.MemocardFilters) ([]byte, error) {
	memocards, err := s.getMemocardsForExport(ctx, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Memocards"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIndex, memocard := range memocards {
		for colIndex, value := range s.memocardToRow(memocard) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== HELPERS =====

func (s *importExportService) getMemocardsForExport(ctx context.Context, filters repositories.MemocardFilters) ([]*models.Memocard, error) {
	// Page through the catalog; List caps each page at the repository limit.
	var all []*models.Memocard
	filters.Skip = 0
	filters.Limit = repositories.MaxListLimit

	for {
		page, total, err := s.repo.Memocard().List(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list memocards: %w", err)
		}
		all = append(all, page...)
		filters.Skip += len(page)
		if len(page) == 0 || int64(len(all)) >= total {
			return all, nil
		}
	}
}

func (s *importExportService) memocardToRow(memocard *models.Memocard) []string {
	row := make([]string, len(exportHeaders))
	row[0] = memocard.Title
	row[1] = memocard.Description
	row[2] = string(memocard.Level)
	row[3] = string(memocard.Difficulty)
	row[4] = memocard.Subject
	row[5] = memocard.Chapter
	row[6] = string(memocard.Type)
	row[7] = strconv.FormatBool(memocard.IsActive)
	row[8] = string(memocard.Content)

	var tags []string
	if len(memocard.Tags) > 0 {
		if err := json.Unmarshal(memocard.Tags, &tags); err == nil {
			row[9] = strings.Join(tags, ",")
		}
	}
	return row
}

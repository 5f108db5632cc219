package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
)

// reportSheet is the sheet excelize creates for a new workbook
const reportSheet = "Sheet1"

// StaffColumns is the column layout of a staff roster workbook, A to F.
var StaffColumns = []string{"Name", "Title", "Department", "Subject", "Bio", "Image"}

// ParseStaffWorkbook reads staff records from the first sheet of a roster
// workbook. The first row is a header. Rows without a name, a title or a
// known department are skipped and counted.
func ParseStaffWorkbook(file io.Reader, logger *zap.Logger) ([]models.StaffRecord, int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("closing excel file failed", zap.Error(err))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	records := make([]models.StaffRecord, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if isBlankRow(row) {
			continue
		}

		rec := models.StaffRecord{
			Name:       cell(row, 0),
			Title:      cell(row, 1),
			Department: models.Department(cell(row, 2)),
			Subject:    cell(row, 3),
			Bio:        cell(row, 4),
			Image:      cell(row, 5),
		}
		dept, err := models.ParseDepartment(string(rec.Department))
		if err == nil {
			rec.Department = dept
			err = rec.Validate()
		}
		if err != nil {
			logger.Warn("skipping roster row", zap.Int("row", i+1), zap.String("name", rec.Name), zap.Error(err))
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ImportStaffFromExcel appends the records of a roster workbook to the
// directory and returns how many were added.
func (s *RedisService) ImportStaffFromExcel(ctx context.Context, file io.Reader) (int, error) {
	records, skipped, err := ParseStaffWorkbook(file, s.Logger)
	if err != nil {
		return 0, err
	}

	s.Logger.Info("importing staff roster", zap.Int("rows", len(records)), zap.Int("skipped", skipped))
	imported := 0
	for _, rec := range records {
		if _, err := s.AddStaff(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}
			s.Logger.Error("adding imported staff failed", zap.String("name", rec.Name), zap.Error(err))
			continue
		}
		imported++
	}

	s.Logger.Info("staff roster imported", zap.Int("imported", imported))
	return imported, nil
}

// ReportWorkbook renders a mock report as a single-sheet workbook.
func ReportWorkbook(report models.ReportRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Student Name", report.StudentName},
		{"Candidate Number", report.CandidateNumber},
		{"Form", string(report.Form)},
		{"Term", string(report.Term)},
		{"Mock Grade", report.MockGrade},
		{"Date", report.Date},
	}
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(reportSheet, axis, &row); err != nil {
			return nil, fmt.Errorf("failed to write report row: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create report style: %w", err)
	}
	if err := f.SetCellStyle(reportSheet, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return nil, fmt.Errorf("failed to style report: %w", err)
	}
	if err := f.SetColWidth(reportSheet, "A", "B", 24); err != nil {
		return nil, fmt.Errorf("failed to size report columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode report workbook: %w", err)
	}
	return buf, nil
}

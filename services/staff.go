package services

import (
	"context"
	"strings"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
)

// StaffDirectory is a source of staff records in display order.
type StaffDirectory interface {
	All(ctx context.Context) ([]models.StaffRecord, error)
}

// StaticDirectory serves a fixed list, typically the embedded dataset.
type StaticDirectory struct {
	records []models.StaffRecord
}

// NewStaticDirectory copies records so later changes by the caller do not leak in
func NewStaticDirectory(records []models.StaffRecord) *StaticDirectory {
	cp := make([]models.StaffRecord, len(records))
	copy(cp, records)
	return &StaticDirectory{records: cp}
}

func (d *StaticDirectory) All(_ context.Context) ([]models.StaffRecord, error) {
	out := make([]models.StaffRecord, len(d.records))
	copy(out, d.records)
	return out, nil
}

// FilterStaff returns the records where query is a case-insensitive substring
// of the name, title, department, subject or bio. A blank query returns every
// record. The input slice is never modified and order is preserved.
func FilterStaff(records []models.StaffRecord, query string) []models.StaffRecord {
	out := make([]models.StaffRecord, 0, len(records))
	if strings.TrimSpace(query) == "" {
		return append(out, records...)
	}

	q := strings.ToLower(query)
	for _, r := range records {
		if matchesStaff(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matchesStaff(r models.StaffRecord, lowerQuery string) bool {
	for _, field := range []string{r.Name, r.Title, string(r.Department), r.Subject, r.Bio} {
		if field != "" && strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}

// DepartmentSection is one heading of the directory page
type DepartmentSection struct {
	Department models.Department
	Staff      []models.StaffRecord
}

// GroupByDepartment splits records into sections in the fixed department
// order, dropping empty sections.
func GroupByDepartment(records []models.StaffRecord) []DepartmentSection {
	byDept := make(map[models.Department][]models.StaffRecord, len(models.Departments))
	for _, r := range records {
		byDept[r.Department] = append(byDept[r.Department], r)
	}

	sections := make([]DepartmentSection, 0, len(models.Departments))
	for _, d := range models.Departments {
		if staff := byDept[d]; len(staff) > 0 {
			sections = append(sections, DepartmentSection{Department: d, Staff: staff})
		}
	}
	return sections
}

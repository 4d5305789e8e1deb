package service

import (
	"time"

	"github.com/noah-isme/ferias-api/internal/models"
)

// Overlaps is the inclusive interval intersection test.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !dateOnly(aStart).After(dateOnly(bEnd)) && !dateOnly(aEnd).Before(dateOnly(bStart))
}

// DetectConflicts builds the advisory report for a department window from the
// approved leave candidates returned by storage.
func DetectConflicts(dept models.Department, windowStart, windowEnd time.Time, candidates []models.ConflictEntry) models.ConflictReport {
	report := models.ConflictReport{
		DepartmentID:   dept.ID,
		DepartmentName: dept.Name,
		WindowStart:    dateOnly(windowStart),
		WindowEnd:      dateOnly(windowEnd),
		Limit:          dept.AbsenceLimit,
		Conflicts:      []models.ConflictEntry{},
	}

	employees := make(map[string]struct{})
	for _, c := range candidates {
		if !Overlaps(c.StartDate, c.EndDate, windowStart, windowEnd) {
			continue
		}
		report.Conflicts = append(report.Conflicts, c)
		employees[c.EmployeeID] = struct{}{}
	}

	report.Count = len(report.Conflicts)
	report.Employees = len(employees)
	report.ExceedsLimit = report.Count > 0 && report.Count >= dept.AbsenceLimit
	return report
}

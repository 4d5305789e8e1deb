package service

import (
	"time"

	"github.com/noah-isme/ferias-api/internal/models"
)

// GeneratePeriods derives one acquisition period per full year elapsed between
// hireDate and asOf, numbered from 1. Callers persist only numbers that do not
// exist yet.
func GeneratePeriods(employeeID string, hireDate, asOf time.Time) []models.AcquisitionPeriod {
	hire := dateOnly(hireDate)
	asOf = dateOnly(asOf)

	periods := make([]models.AcquisitionPeriod, 0)
	for n := 1; !addYears(hire, n).After(asOf); n++ {
		periods = append(periods, newPeriod(employeeID, n, addYears(hire, n-1), addYears(hire, n)))
	}
	return periods
}

// NextPeriod continues the chain after prev, starting at prev's acquisition end.
func NextPeriod(prev models.AcquisitionPeriod) models.AcquisitionPeriod {
	start := dateOnly(prev.AcquisitionEnd)
	return newPeriod(prev.EmployeeID, prev.Number+1, start, addYears(start, 1))
}

func newPeriod(employeeID string, number int, start, end time.Time) models.AcquisitionPeriod {
	return models.AcquisitionPeriod{
		EmployeeID:       employeeID,
		Number:           number,
		AcquisitionStart: start,
		AcquisitionEnd:   end,
		LeaveDeadline:    addMonths(end, 12),
		EntitledDays:     models.EntitledDaysPerPeriod,
		SoldDays:         0,
		Status:           models.PeriodStatusActive,
	}
}

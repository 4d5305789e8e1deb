package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/ferias-api/internal/models"
)

// ComputeBalance aggregates the requests of one period. Each request lands in
// exactly one bucket by (type, status); rejected and cancelled ones count zero.
// Available may be negative and is reported as-is.
func ComputeBalance(period models.AcquisitionPeriod, requests []models.VacationRequest, today time.Time) models.PeriodBalance {
	b := models.PeriodBalance{
		PeriodID:      period.ID,
		Number:        period.Number,
		EntitledDays:  period.EntitledDays,
		SoldField:     period.SoldDays,
		LeaveDeadline: period.LeaveDeadline,
		Ignored:       period.Ignored,
		Status:        period.Status,
	}

	for _, req := range requests {
		if req.PeriodID != "" && period.ID != "" && req.PeriodID != period.ID {
			continue
		}
		switch {
		case req.Status == models.RequestStatusPending:
			b.Pending += req.Days
		case req.Status == models.RequestStatusApproved && req.Type == models.RequestTypeLeave:
			b.Taken += req.Days
		case req.Status == models.RequestStatusApproved && req.Type == models.RequestTypeSale:
			b.SoldViaRequest += req.Days
		}
	}

	b.TotalSold = b.SoldField + b.SoldViaRequest
	b.Used = b.Taken + b.SoldViaRequest
	b.Remaining = b.EntitledDays - b.SoldField - b.Used
	b.Available = b.Remaining - b.Pending
	b.PercentConsumed = percentConsumed(b.EntitledDays, b.Available)
	b.DaysUntilDeadline = daysBetween(today, period.LeaveDeadline)
	b.Expiring = b.DaysUntilDeadline > 0 && b.DaysUntilDeadline <= models.ExpiringWindowDays && b.Available > 0

	return b
}

func percentConsumed(entitled, available int) decimal.Decimal {
	if entitled <= 0 {
		return decimal.Zero
	}
	consumed := decimal.NewFromInt(int64(entitled - available))
	return consumed.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(entitled))).Round(2)
}

// AggregateBalances sums per-period balances of one employee. Ignored periods
// are listed but excluded from totals; negative availability is clamped per
// period before summing.
func AggregateBalances(employee models.Employee, balances []models.PeriodBalance) models.EmployeeBalance {
	agg := models.EmployeeBalance{
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		Periods:      balances,
	}
	if agg.Periods == nil {
		agg.Periods = []models.PeriodBalance{}
	}

	for _, b := range balances {
		if b.Ignored {
			continue
		}
		agg.TotalEntitled += b.EntitledDays
		agg.TotalTaken += b.Taken
		agg.TotalSold += b.TotalSold
		agg.TotalPending += b.Pending
		if b.Available > 0 {
			agg.TotalAvailable += b.Available
		}
		if b.Expiring {
			agg.HasExpiringPeriod = true
		}
	}

	return agg
}

// DerivePeriodStatus is the status a period should carry given its balance.
// A fully used period stays QUITADO after its deadline; only a leftover
// balance turns VENCIDO.
func DerivePeriodStatus(b models.PeriodBalance, today time.Time) models.PeriodStatus {
	if b.Remaining <= 0 {
		return models.PeriodStatusSettled
	}
	if dateOnly(today).After(dateOnly(b.LeaveDeadline)) {
		return models.PeriodStatusExpired
	}
	return models.PeriodStatusActive
}

package helpers

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/ratecurve/calendar"
	"github.com/meenmo/ratecurve/utils"
)

// DepositConvention describes a money-market rate: deposits, FRAs and futures.
type DepositConvention struct {
	Name           string
	SettlementDays int
	Calendar       calendar.CalendarID
	DayCount       utils.DayCount
}

// SwapConvention describes a fixed-vs-floating swap. The floating leg is
// projected from the curve being built; an overnight leg compounds daily,
// which telescopes to the same period forward.
type SwapConvention struct {
	Name                 string
	SettlementDays       int
	Calendar             calendar.CalendarID
	FixedFrequencyMonths int
	FixedDayCount        utils.DayCount
	FloatFrequencyMonths int
	FloatDayCount        utils.DayCount
	PayDelayDays         int
	EndOfMonth           bool
}

// Preset conventions for EUR and USD.
var (
	EURDeposit = DepositConvention{
		Name:           "EUR",
		SettlementDays: 2,
		Calendar:       calendar.TARGET,
		DayCount:       utils.Act360,
	}

	USDDeposit = DepositConvention{
		Name:           "USD",
		SettlementDays: 2,
		Calendar:       calendar.USD,
		DayCount:       utils.Act360,
	}

	// ESTRSwap is the EUR OIS: annual ACT/360 on both legs, paid one day after accrual end.
	ESTRSwap = SwapConvention{
		Name:                 "ESTR",
		SettlementDays:       2,
		Calendar:             calendar.TARGET,
		FixedFrequencyMonths: 12,
		FixedDayCount:        utils.Act360,
		FloatFrequencyMonths: 12,
		FloatDayCount:        utils.Act360,
		PayDelayDays:         1,
	}

	// SOFRSwap is the USD OIS: annual ACT/360 on both legs with a two day payment lag.
	SOFRSwap = SwapConvention{
		Name:                 "SOFR",
		SettlementDays:       2,
		Calendar:             calendar.USD,
		FixedFrequencyMonths: 12,
		FixedDayCount:        utils.Act360,
		FloatFrequencyMonths: 12,
		FloatDayCount:        utils.Act360,
		PayDelayDays:         2,
	}

	// EURIBOR3MSwap pays annual 30/360 fixed against quarterly EURIBOR.
	EURIBOR3MSwap = SwapConvention{
		Name:                 "EURIBOR3M",
		SettlementDays:       2,
		Calendar:             calendar.TARGET,
		FixedFrequencyMonths: 12,
		FixedDayCount:        utils.Dc30360,
		FloatFrequencyMonths: 3,
		FloatDayCount:        utils.Act360,
		EndOfMonth:           true,
	}

	// EURIBOR6MSwap pays annual 30/360 fixed against semi-annual EURIBOR.
	EURIBOR6MSwap = SwapConvention{
		Name:                 "EURIBOR6M",
		SettlementDays:       2,
		Calendar:             calendar.TARGET,
		FixedFrequencyMonths: 12,
		FixedDayCount:        utils.Dc30360,
		FloatFrequencyMonths: 6,
		FloatDayCount:        utils.Act360,
		EndOfMonth:           true,
	}
)

// LookupDepositConvention resolves a money-market convention by currency or index name.
func LookupDepositConvention(name string) (DepositConvention, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "EUR", "EURIBOR", "EURIBOR3M", "EURIBOR6M", "ESTR":
		return EURDeposit, nil
	case "USD", "SOFR":
		return USDDeposit, nil
	default:
		return DepositConvention{}, fmt.Errorf("LookupDepositConvention: unknown convention %q", name)
	}
}

// LookupSwapConvention resolves a swap convention by index name.
func LookupSwapConvention(name string) (SwapConvention, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ESTR":
		return ESTRSwap, nil
	case "SOFR":
		return SOFRSwap, nil
	case "EURIBOR3M":
		return EURIBOR3MSwap, nil
	case "EURIBOR6M":
		return EURIBOR6MSwap, nil
	default:
		return SwapConvention{}, fmt.Errorf("LookupSwapConvention: unknown convention %q", name)
	}
}

// spotDate is asOf rolled to a business day and advanced by the settlement lag.
func spotDate(cal calendar.CalendarID, asOf time.Time, settlementDays int) time.Time {
	return calendar.AddBusinessDays(cal, calendar.AdjustFollowing(cal, asOf), settlementDays)
}

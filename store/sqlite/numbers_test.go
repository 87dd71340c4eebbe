package sqlite

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
)

func TestMalformedStoredNumberReadsAsZero(t *testing.T) {
	// GIVEN: A worker whose stored salary was corrupted outside the engine
	var logs bytes.Buffer
	store, err := New(":memory:", WithLogger(zerolog.New(&logs)))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, generic.Worker{
		ID: "f-1", Name: "Ravi", Category: generic.CategoryForeign,
		Rates: generic.RateCard{MonthlyBasicSalary: generic.MustParseDecimal("1500")},
	}))
	_, err = store.db.ExecContext(ctx, `UPDATE workers SET monthly_basic_salary = 'NaN' WHERE id = 'f-1'`)
	require.NoError(t, err)

	// WHEN: Reading it back
	w, err := store.GetWorker(ctx, "f-1")
	require.NoError(t, err)

	// THEN: The value is zero and the data problem is logged
	assert.True(t, w.Rates.MonthlyBasicSalary.IsZero())
	assert.Contains(t, logs.String(), "non-finite stored number treated as zero")
	assert.Contains(t, logs.String(), "monthly_basic_salary")
}

func TestResetClearsEveryTable(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{ID: "h", Date: generic.NewDate(2025, time.May, 1), Name: "Labour Day"}))
	require.NoError(t, store.SetWorkingDays(ctx, generic.WorkingDaysConfig{Year: 2025, Month: time.May, Days: 21}))

	require.NoError(t, store.Reset(ctx))

	holidays, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Empty(t, holidays)
	_, err = store.GetWorkingDays(ctx, 2025, time.May)
	assert.Equal(t, generic.KindConfigurationMissing, generic.KindOf(err))
}

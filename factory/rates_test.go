package factory_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/contribution"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
)

const customRates = `{
  "age_bands": [
    {"max_age": 0,  "employee_percent": 5,  "employer_percent": 7.5, "phase_factor": 0.15},
    {"max_age": 55, "employee_percent": 20, "employer_percent": 17,  "phase_factor": 0.6}
  ],
  "wage_bands": {"no_contribution_up_to": 50, "employer_only_up_to": 500, "phase_in_up_to": 750, "wage_ceiling": 8000},
  "community_fund": {"basis": "wage", "bands": [{"up_to": 2000, "amount": 4}, {"amount": 10}]},
  "levy": {"percent": 0.25, "min": 2, "max": 11.25}
}`

func TestParseRates_Custom(t *testing.T) {
	// GIVEN: A rate file with a raised wage ceiling and a wage-keyed fund
	set, err := factory.NewRatesFactory().ParseRates(customRates)
	require.NoError(t, err)

	// THEN: Bands are sorted, ceiling applies, fund table is present
	require.Len(t, set.Tables.AgeBands, 2)
	assert.Equal(t, 55, set.Tables.AgeBands[0].MaxAge)
	assert.True(t, generic.MustParseDecimal("8000").Equal(set.Tables.WageCeiling))

	res := contribution.NewCalculator(set.Tables).Compute(contribution.Input{
		WageBase: generic.MustParseDecimal("10000"), Age: 30,
	})
	assert.True(t, generic.MustParseDecimal("1600").Equal(res.Employee), "20%% of 8000, got %s", res.Employee)

	require.NotNil(t, set.CommunityFund)
	assert.Equal(t, contribution.BasisWage, set.CommunityFund.Basis)
	assert.True(t, generic.MustParseDecimal("4").Equal(set.CommunityFund.Amount(generic.MustParseDecimal("1500"), 30)))
}

func TestParseRates_PartialFileKeepsDefaults(t *testing.T) {
	set, err := factory.NewRatesFactory().ParseRates(`{"levy": {"percent": 0.5, "min": 1, "max": 20}}`)
	require.NoError(t, err)

	assert.Len(t, set.Tables.AgeBands, len(contribution.DefaultTables().AgeBands))
	assert.Nil(t, set.CommunityFund)
	assert.True(t, generic.MustParseDecimal("0.5").Equal(set.Levy.Percent))
}

func TestParseRates_Invalid(t *testing.T) {
	f := factory.NewRatesFactory()

	_, err := f.ParseRates(`{not json`)
	assert.Error(t, err)

	_, err = f.ParseRates(`{"age_bands": [{"max_age": 55, "employee_percent": 20}]}`)
	assert.Error(t, err, "no open-ended band")

	_, err = f.ParseRates(`{"community_fund": {"basis": "age", "bands": [{"percent": 3}, {"up_to": 60, "percent": 2}]}}`)
	assert.Error(t, err, "open band must be last")

	_, err = f.ParseRates(`{"levy": {"percent": 0.25, "min": 5, "max": 2}}`)
	assert.Error(t, err)
}

func TestRatesFile_RoundTrip(t *testing.T) {
	f := factory.NewRatesFactory()

	// Empty path means built-in defaults
	set, err := f.LoadRatesFile("")
	require.NoError(t, err)
	assert.Equal(t, contribution.DefaultTables().AgeBands[0].MaxAge, set.Tables.AgeBands[0].MaxAge)

	// Defaults survive ToJSON -> file -> LoadRatesFile
	table := contribution.AgeTable()
	set.CommunityFund = &table
	raw, err := json.Marshal(f.ToJSON(set))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rates.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	loaded, err := f.LoadRatesFile(path)
	require.NoError(t, err)
	assert.Equal(t, len(set.Tables.AgeBands), len(loaded.Tables.AgeBands))
	for i := range set.Tables.AgeBands {
		assert.True(t, set.Tables.AgeBands[i].EmployeePercent.Equal(loaded.Tables.AgeBands[i].EmployeePercent))
	}
	require.NotNil(t, loaded.CommunityFund)
	assert.Equal(t, contribution.BasisAge, loaded.CommunityFund.Basis)

	_, err = f.LoadRatesFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

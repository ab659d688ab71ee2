package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/config"
	"github.com/crestview-group/underwriting-cli/internal/model"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestRepairComp_UnitMismatchRebuildsPrice(t *testing.T) {
	r := NewRepairer(config.RepairConfig{})

	comp := model.NormalizedComp{
		PropertyName: "Oakwood Flats",
		SalePrice:    f(264.19),
		Units:        i(200),
	}
	warnings := r.RepairComp(&comp)

	// 264.19 $/SF * 900 SF * 200 units
	require.NotNil(t, comp.SalePrice)
	assert.InDelta(t, 47554200, *comp.SalePrice, 0.5)
	require.NotNil(t, comp.PricePerSF)
	assert.InDelta(t, 264.19, *comp.PricePerSF, 0.001)
	require.NotNil(t, comp.PricePerUnit)
	assert.InDelta(t, 237771, *comp.PricePerUnit, 0.5)

	assert.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "treated as price per SF")
	assert.Contains(t, warnings[1], "assumed 900 SF")
}

func TestRepairComp_UnitMismatchUsesActualUnitSF(t *testing.T) {
	r := NewRepairer(config.RepairConfig{})

	comp := model.NormalizedComp{
		SalePrice: f(300),
		Units:     i(100),
		AvgUnitSF: f(1000),
	}
	r.RepairComp(&comp)

	require.NotNil(t, comp.SalePrice)
	assert.InDelta(t, 30000000, *comp.SalePrice, 0.5)
	require.NotNil(t, comp.PricePerUnit)
	assert.InDelta(t, 300000, *comp.PricePerUnit, 0.5)
}

func TestRepairComp_SmallPropertyNotRepaired(t *testing.T) {
	r := NewRepairer(config.RepairConfig{})

	// A duplex genuinely can sell for a small figure; the repair only fires
	// above the unit floor.
	comp := model.NormalizedComp{
		SalePrice: f(8000),
		Units:     i(2),
	}
	r.RepairComp(&comp)

	assert.InDelta(t, 8000, *comp.SalePrice, 0.001)
	assert.Nil(t, comp.PricePerSF)
}

func TestRepairComp_DerivesPPUAndPSF(t *testing.T) {
	r := NewRepairer(config.RepairConfig{})

	comp := model.NormalizedComp{
		SalePrice: f(25000000),
		Units:     i(100),
		AvgUnitSF: f(1000),
	}
	warnings := r.RepairComp(&comp)

	require.NotNil(t, comp.PricePerUnit)
	assert.InDelta(t, 250000, *comp.PricePerUnit, 0.5)
	require.NotNil(t, comp.PricePerSF)
	assert.InDelta(t, 250, *comp.PricePerSF, 0.001)
	assert.Empty(t, warnings)
}

func TestRepairComp_DerivesSalePriceFromPPU(t *testing.T) {
	r := NewRepairer(config.RepairConfig{})

	comp := model.NormalizedComp{
		PricePerUnit: f(180000),
		Units:        i(150),
	}
	warnings := r.RepairComp(&comp)

	require.NotNil(t, comp.SalePrice)
	assert.InDelta(t, 27000000, *comp.SalePrice, 0.5)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "derived from price per unit")
}

func TestRepairComp_ImplausiblePPURederivedFromSalePrice(t *testing.T) {
	r := NewRepairer(config.RepairConfig{})

	// A per-unit price of $250 against a $50M sale is a units mixup, not a
	// real figure; the sale price wins.
	comp := model.NormalizedComp{
		SalePrice:    f(50000000),
		Units:        i(200),
		PricePerUnit: f(250),
	}
	warnings := r.RepairComp(&comp)

	require.NotNil(t, comp.PricePerUnit)
	assert.InDelta(t, 250000, *comp.PricePerUnit, 0.5)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "re-derived from sale price")
}

func TestRepairComp_PlausiblePPUNotOverwritten(t *testing.T) {
	r := NewRepairer(config.RepairConfig{})

	// Above the floor the stored figure stands even when it disagrees with
	// sale price / units.
	comp := model.NormalizedComp{
		SalePrice:    f(50000000),
		Units:        i(200),
		PricePerUnit: f(240000),
	}
	warnings := r.RepairComp(&comp)

	assert.InDelta(t, 240000, *comp.PricePerUnit, 0.001)
	assert.Empty(t, warnings)
}

func TestRepairComp_PlausibilityAdvisory(t *testing.T) {
	r := NewRepairer(config.RepairConfig{})

	comp := model.NormalizedComp{
		PricePerUnit: f(5000),
	}
	warnings := r.RepairComp(&comp)

	// Value stands; the warning is advisory only.
	assert.InDelta(t, 5000, *comp.PricePerUnit, 0.001)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "outside plausible range")

	comp = model.NormalizedComp{PricePerUnit: f(3000000)}
	warnings = r.RepairComp(&comp)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "outside plausible range")
}

func TestRepairComp_NothingToDo(t *testing.T) {
	r := NewRepairer(config.RepairConfig{})

	comp := model.NormalizedComp{PropertyName: "No Numbers"}
	warnings := r.RepairComp(&comp)
	assert.Empty(t, warnings)
	assert.Nil(t, comp.SalePrice)
	assert.Nil(t, comp.PricePerUnit)
}

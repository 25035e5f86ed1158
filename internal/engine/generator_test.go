package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RotorSizer/internal/model"
)

func TestGenerate_CrossProductOfCompatibleComponents(t *testing.T) {
	cat := model.DefaultCatalog()
	cs := model.DefaultConstraints()
	cs.PrintMaterials = []model.PrintMaterial{*cat.FindPrintMaterial("PLA"), *cat.FindPrintMaterial("PETG")}

	cands := Generate(&cat, cs)

	// Two 11.1 V combos with three 3S packs each, one 14.8 V combo with the 4S pack.
	require.Len(t, cands, (3+3+1)*2)
	assert.Equal(t, "MT2212 920Kv/APC 10x4.7", cands[0].Combo.Name)
	assert.Equal(t, "3S 2200", cands[0].Battery.Name)
	assert.Equal(t, "PLA", cands[0].PrintMaterial.Name)
	assert.Equal(t, "PETG", cands[1].PrintMaterial.Name)
	assert.Equal(t, "3S 3300", cands[2].Battery.Name)

	for _, c := range cands {
		assert.Less(t, math.Abs(c.Battery.Voltage.Value-c.Combo.TestVoltage.Value), model.VoltageTolerance, c.Name)
		assert.Equal(t, model.Unevaluated, c.Status)
		assert.Nil(t, c.CuttingMaterial)
	}
}

func TestGenerate_NoPrintMaterials(t *testing.T) {
	cat := model.DefaultCatalog()
	cs := model.DefaultConstraints()
	cs.PrintMaterials = nil

	cands := Generate(&cat, cs)
	assert.NotNil(t, cands)
	assert.Empty(t, cands)
}

func TestGenerate_WithCuttingMaterials(t *testing.T) {
	cat := model.DefaultCatalog()
	cs := model.DefaultConstraints().WithCutter(cat.Cutters[0])
	cs.PrintMaterials = cat.PrintMaterials[:1]
	cs.CuttingMaterials = cat.CuttingMaterials

	cands := Generate(&cat, cs)
	require.Len(t, cands, 7*2)
	require.NotNil(t, cands[0].CuttingMaterial)
	assert.Equal(t, "Acrylic 1/8", cands[0].CuttingMaterial.Name)
	assert.Equal(t, "Plywood 1/8", cands[1].CuttingMaterial.Name)
}

func TestGenerate_DoesNotMutateCatalog(t *testing.T) {
	cat := model.DefaultCatalog()
	before := cat.Len()
	cs := model.DefaultConstraints()
	cs.PrintMaterials = cat.PrintMaterials

	Generate(&cat, cs)
	assert.Equal(t, before, cat.Len())
	assert.NoError(t, cat.Validate())
}

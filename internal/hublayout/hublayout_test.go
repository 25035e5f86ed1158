package hublayout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RotorSizer/internal/model"
)

func fixtures(t *testing.T) (model.Battery, model.Sensor, model.Sensor, model.Sensor) {
	t.Helper()
	cat := model.DefaultCatalog()
	bat := cat.FindBattery("3S 2200")
	cam := cat.FindSensor("Action Camera")
	lidar := cat.FindSensor("Lidar Rangefinder")
	gps := cat.FindSensor("GPS Puck")
	require.NotNil(t, bat)
	require.NotNil(t, cam)
	require.NotNil(t, lidar)
	require.NotNil(t, gps)
	return *bat, *cam, *lidar, *gps
}

func TestSimple_SizesFromBattery(t *testing.T) {
	bat, _, _, _ := fixtures(t)

	l := Simple(bat, nil)
	assert.InDelta(t, 0.105*1.05, l.Size, 1e-9)
	assert.InDelta(t, 1.5*(0.024+0.53/39.37), l.Separation, 1e-9)
	assert.Equal(t, 2, l.Layers)
	assert.Nil(t, l.Grid)
}

func TestSimple_InteriorSensorRaisesSeparation(t *testing.T) {
	bat, _, _, _ := fixtures(t)
	tall := model.Sensor{Name: "Tall", Weight: bat.Weight, XDim: bat.YDim, YDim: bat.YDim, ZDim: bat.XDim}

	l := Simple(bat, []model.Sensor{tall})
	assert.InDelta(t, 1.5*0.105, l.Separation, 1e-9)
}

func TestHubSize_GrowsForSquareComponent(t *testing.T) {
	square := Box{X: 0.2, Y: 0.2, Z: 0.01}
	assert.InDelta(t, (0.2+2*armPad)*comfort, hubSize([]Box{square, flightController}), 1e-12)
}

func TestSolve_NoSensors(t *testing.T) {
	bat, _, _, _ := fixtures(t)

	l, err := Solve(bat, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Layers)
	require.NotNil(t, l.Grid)
	assert.True(t, l.Grid.Occupied(0, 50, 50), "flight controller at centre of layer 0")
	assert.True(t, l.Grid.Occupied(1, 50, 50), "battery at centre of layer 1")
	assert.True(t, l.Grid.Occupied(0, 0, 0), "arm pad in corner")
	assert.False(t, l.Grid.Occupied(0, 50, 5))
}

func TestSolve_TopAndBottomSensors(t *testing.T) {
	bat, cam, _, gps := fixtures(t)

	l, err := Solve(bat, []model.Sensor{gps})
	require.NoError(t, err)
	assert.Equal(t, 3, l.Layers)
	assert.True(t, l.Grid.Occupied(2, 50, 50))

	l, err = Solve(bat, []model.Sensor{gps, cam})
	require.NoError(t, err)
	assert.Equal(t, 4, l.Layers)
	// The camera went under the stack, pushing the flight controller up one.
	assert.True(t, l.Grid.Occupied(0, 50, 50))
	assert.True(t, l.Grid.Occupied(3, 50, 50))
}

func TestSolve_InteriorSensorUsesFreeLayer(t *testing.T) {
	bat, _, lidar, _ := fixtures(t)

	l, err := Solve(bat, []model.Sensor{lidar})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, l.Layers, 2)
	assert.LessOrEqual(t, l.Layers, 3)
}

func TestSolve_TooManyTopSensors(t *testing.T) {
	bat, cam, _, gps := fixtures(t)
	second := gps
	second.Name = "Second GPS"

	_, err := Solve(bat, []model.Sensor{gps, cam, second})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlacement)

	var pe *PlacementError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Second GPS", pe.Sensor)
}

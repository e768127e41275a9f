package sculpture

// MaterialParams are the physical constants used by print validation.
type MaterialParams struct {
	MinWallThickness float64 // mm
	LayerHeight      float64 // mm
	PrintSpeed       float64 // mm/s
	Density          float64 // g/cm³
	SupportAngle     float64 // degrees from vertical before supports are needed
	InfillPercent    float64 // %
}

// materialTable is fixed; it is not user-editable.
var materialTable = map[Material]MaterialParams{
	MaterialPLA: {
		MinWallThickness: 0.8,
		LayerHeight:      0.2,
		PrintSpeed:       50,
		Density:          1.24,
		SupportAngle:     45,
		InfillPercent:    20,
	},
	MaterialWood: {
		MinWallThickness: 1.2,
		LayerHeight:      0.25,
		PrintSpeed:       40,
		Density:          1.15,
		SupportAngle:     40,
		InfillPercent:    25,
	},
	MaterialResin: {
		MinWallThickness: 0.5,
		LayerHeight:      0.05,
		PrintSpeed:       20,
		Density:          1.1,
		SupportAngle:     30,
		InfillPercent:    100,
	},
}

// ParamsFor returns the constants for m. Unknown materials fall back to PLA.
func ParamsFor(m Material) MaterialParams {
	if p, ok := materialTable[m]; ok {
		return p
	}
	return materialTable[MaterialPLA]
}

// Params returns the constants for the config's material.
func (c Config) Params() MaterialParams {
	return ParamsFor(c.Material)
}

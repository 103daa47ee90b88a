package recipe

// HealthPoints rates one ingredient on each diet-compass metric, from -10
// (strongly harmful) to +10 (strongly beneficial).
type HealthPoints struct {
	NutrientDensity float64 `json:"nutrientDensity"`
	AntiAging       float64 `json:"antiAging"`
	WeightLoss      float64 `json:"weightLoss"`
	HeartHealth     float64 `json:"heartHealth"`
}

// Mean returns the average of the four metrics
func (p HealthPoints) Mean() float64 {
	return (p.NutrientDensity + p.AntiAging + p.WeightLoss + p.HeartHealth) / 4
}

// HealthEntry is one row of the ingredient health table
type HealthEntry struct {
	Name string `json:"name"`
	HealthPoints
}

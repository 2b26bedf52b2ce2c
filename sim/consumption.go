package sim

// consumptionBand is one piecewise-constant segment of the daily demand profile.
type consumptionBand struct {
	FirstHour int
	LastHour  int
	Rate      float64 // m³/h
}

// consumptionProfile is the daily demand of the population served by the Principal tank.
var consumptionProfile = []consumptionBand{
	{FirstHour: 0, LastHour: 5, Rate: 2.0},
	{FirstHour: 6, LastHour: 10, Rate: 4.5},
	{FirstHour: 11, LastHour: 13, Rate: 6.0},
	{FirstHour: 14, LastHour: 17, Rate: 4.0},
	{FirstHour: 18, LastHour: 22, Rate: 5.5},
	{FirstHour: 23, LastHour: 23, Rate: 3.0},
}

// ConsumptionRate returns the consumption (m³/h) drawn from the Principal tank during the
// given hour of day. Callers must reduce the hour modulo 24 first; hours outside [0,23]
// fall into the last band.
func ConsumptionRate(hourOfDay int) float64 {
	for _, band := range consumptionProfile {
		if hourOfDay >= band.FirstHour && hourOfDay <= band.LastHour {
			return band.Rate
		}
	}
	return consumptionProfile[len(consumptionProfile)-1].Rate
}

// DailyConsumption returns the total volume consumed over one full day.
func DailyConsumption() float64 {
	total := 0.0
	for h := 0; h < HoursPerDay; h++ {
		total += ConsumptionRate(h)
	}
	return total
}

// HourOfDay maps a simulated hour t (starting at 1) onto the 24-hour clock.
func HourOfDay(t int) int {
	return t % HoursPerDay
}

package robot

// ServoCalibration holds the raw travel range of the lift servo.
type ServoCalibration struct {
	ID       int `json:"id"`
	RangeMin int `json:"range_min"`
	RangeMax int `json:"range_max"`
}

// IsCalibrated returns true if a usable range has been recorded.
func (c ServoCalibration) IsCalibrated() bool {
	return c.ID > 0 && c.RangeMax != c.RangeMin
}

// Normalize converts a raw servo position to a normalized value in the range [0, 1].
func (c ServoCalibration) Normalize(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	return float64(raw-c.RangeMin) / rangeSize
}

// Denormalize converts a normalized value [0, 1] to a raw servo position.
// Values outside [0, 1] are limited to the calibrated travel.
func (c ServoCalibration) Denormalize(norm float64) int {
	norm = min(max(norm, 0), 1)
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int(norm*rangeSize+0.5*sign(rangeSize)) + c.RangeMin
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

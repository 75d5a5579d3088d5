package feature

import "math"

// columnScaler standardizes one numeric column to zero mean and unit
// variance using statistics captured at fit time.
type columnScaler struct {
	Mean   float64 `msgpack:"mean"`
	StdDev float64 `msgpack:"std_dev"`
}

// fitScaler computes mean and population standard deviation of values.
func fitScaler(values []float64) columnScaler {
	n := float64(len(values))
	if n == 0 {
		return columnScaler{}
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sqSum float64
	for _, v := range values {
		d := v - mean
		sqSum += d * d
	}

	return columnScaler{Mean: mean, StdDev: math.Sqrt(sqSum / n)}
}

// apply standardizes a single value. Constant columns (zero stddev) scale
// to 0 rather than NaN.
func (s columnScaler) apply(v float64) float64 {
	if s.StdDev == 0 {
		return 0
	}
	return (v - s.Mean) / s.StdDev
}

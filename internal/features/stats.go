package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Todas devuelven 0 con la serie vacía: una ventana sin datos no es un error.

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func sum(values []float64) float64 {
	return floats.Sum(values)
}

// stdDev es la desviación poblacional (divide por n), la misma que usa el entrenamiento.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(values, nil)
	return std
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Min(values)
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

// median promedia los dos centrales con n par; stat.Quantile empírico da el inferior.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lower := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if len(sorted)%2 == 1 {
		return lower
	}
	return (lower + sorted[len(sorted)/2]) / 2
}

// diffs devuelve las primeras diferencias; nil con menos de dos valores.
func diffs(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	floats.SubTo(out, values[1:], values[:len(values)-1])
	return out
}

func maxAbs(values []float64) float64 {
	var m float64
	for _, v := range values {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

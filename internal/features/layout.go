package features

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyLayout      = errors.New("feature layout is empty")
	ErrDuplicateFeature = errors.New("feature layout has duplicate name")
	ErrUnknownFeature   = errors.New("feature layout names an unknown feature")
)

// canonicalNames es el orden por defecto cuando el modelo no trae metadata.
var canonicalNames = []string{
	"hr_mean", "hr_std", "hr_min", "hr_max", "hr_median", "hr_avg_change", "hr_max_change",
	"hrv_mean", "hrv_std", "hrv_min", "hrv_max", "hrv_median", "hrv_avg_change",
	"spo2_mean", "spo2_min",
	"stress_mean", "stress_max",
	"steps_total", "steps_mean",
	"calories_total",
	"respiratory_mean",
	"sleep_hours",
	"body_battery",
	"hour_of_day", "hour_sin", "hour_cos",
	"day_of_week", "day_sin", "day_cos",
	"data_points_count",
}

var knownNames = func() map[string]struct{} {
	m := make(map[string]struct{}, len(canonicalNames))
	for _, n := range canonicalNames {
		m[n] = struct{}{}
	}
	return m
}()

// CanonicalNames devuelve una copia del orden canónico de 30 nombres.
func CanonicalNames() []string {
	out := make([]string, len(canonicalNames))
	copy(out, canonicalNames)
	return out
}

// Layout es el contrato de orden entre entrenamiento e inferencia.
// Es inmutable: Names devuelve copias.
type Layout struct {
	names    []string
	checksum string
}

// NewLayout construye un layout; con names vacío usa el orden canónico.
func NewLayout(names []string) Layout {
	if len(names) == 0 {
		return CanonicalLayout()
	}
	cp := make([]string, len(names))
	copy(cp, names)
	return Layout{names: cp, checksum: checksum(cp)}
}

// CanonicalLayout es el layout por defecto.
func CanonicalLayout() Layout {
	cp := CanonicalNames()
	return Layout{names: cp, checksum: checksum(cp)}
}

func checksum(names []string) string {
	h := sha256.Sum256([]byte(strings.Join(names, "\n")))
	return hex.EncodeToString(h[:])
}

func (l Layout) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

func (l Layout) Len() int { return len(l.names) }

// Checksum identifica el orden exacto de nombres (sha256 hex).
func (l Layout) Checksum() string { return l.checksum }

// IsCanonical indica si el layout coincide con el orden por defecto.
func (l Layout) IsCanonical() bool {
	return l.checksum == checksum(canonicalNames)
}

// Validate exige nombres únicos y conocidos por el extractor.
func (l Layout) Validate() error {
	if len(l.names) == 0 {
		return ErrEmptyLayout
	}
	seen := make(map[string]struct{}, len(l.names))
	for _, n := range l.names {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateFeature, n)
		}
		seen[n] = struct{}{}
		if _, ok := knownNames[n]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFeature, n)
		}
	}
	return nil
}

// Vector ordena los valores según el layout. Los nombres ausentes valen 0.0.
func (l Layout) Vector(values Values) []float64 {
	out := make([]float64, len(l.names))
	for i, n := range l.names {
		out[i] = values[n]
	}
	return out
}

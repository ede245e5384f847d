package profile

import (
	"fmt"
	"sort"
)

var models = map[string]Model{
	Parabolic{}.Name():      Parabolic{},
	GaussianHat{}.Name():    GaussianHat{},
	DoubleGaussian{}.Name(): DoubleGaussian{},
}

// ByName looks up a profile family.
func ByName(name string) (Model, error) {
	m, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile model: %s (available: %v)", name, Names())
	}
	return m, nil
}

// Names lists the registered families in sorted order.
func Names() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Guess assembles a starting vector from a central density and the
// family's default shape.
func Guess(m Model, n0, radius float64) Params {
	return append(Params{n0}, m.DefaultShape(radius)...)
}

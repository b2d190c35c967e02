package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSealedInterfaces(t *testing.T) {
	var _ Query = Select{}
	var _ Query = &Select{}
	var _ Predicate = Equals{}
	var _ Predicate = Range{}
	var _ Predicate = And{}
}

func TestAllOf(t *testing.T) {
	phase := Equals{Field: "phase", Value: "reset"}
	class := Equals{Field: "event_class", Value: "kick.pass"}

	tests := []struct {
		name  string
		preds []Predicate
		want  Predicate
	}{
		{"none", nil, nil},
		{"only nils", []Predicate{nil, nil}, nil},
		{"single", []Predicate{nil, phase}, phase},
		{"several", []Predicate{phase, nil, class}, And{Predicates: []Predicate{phase, class}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllOf(tt.preds...))
		})
	}
}

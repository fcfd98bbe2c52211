package entity_test

import (
	"testing"

	"github.com/artpar/minapi/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestMissing(t *testing.T) {
	tests := []struct {
		name string
		v    entity.Validator
		want []string
	}{
		{"complete person", entity.Person{FirstName: "Ann", LastName: "Lee"}, nil},
		{"blank last name", entity.Person{FirstName: "Ann", LastName: "   "}, []string{"lastName"}},
		{"empty person", entity.Person{}, []string{"firstName", "lastName"}},
		{"product", entity.Product{Name: "Lamp", Price: 1999}, nil},
		{"free product", entity.Product{Name: "Sticker"}, nil},
		{"negative price", entity.Product{Name: "Lamp", Price: -1}, []string{"price"}},
		{"housing", entity.HousingLocation{Name: "Acme", City: "Springfield", State: "IL"}, nil},
		{"housing without city", entity.HousingLocation{Name: "Acme", State: "IL"}, []string{"city"}},
		{"account", entity.Account{Name: "root", Email: "root@example.com"}, nil},
		{"account bad email", entity.Account{Name: "root", Email: "root"}, []string{"email"}},
		{"account no email", entity.Account{Name: "root"}, []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Missing())
		})
	}
}

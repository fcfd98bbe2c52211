package app_test

import (
	"testing"

	"github.com/artpar/minapi/app"
	"github.com/artpar/minapi/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCityMatcher(t *testing.T) {
	tests := []struct {
		query string
		city  string
		want  bool
	}{
		{"spring", "Springfield", true},
		{"spring", "SPRING VALLEY", true},
		{"spring", "Lakeview", false},
		{"FIELD", "Springfield", true},
		{"  spring ", "Springfield", true},
		{"århus", "ÅRHUS", true},
		{"view", "Lake", false},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.city, func(t *testing.T) {
			match := app.CityMatcher(tt.query)
			require.NotNil(t, match)
			assert.Equal(t, tt.want, match(entity.HousingLocation{City: tt.city}))
		})
	}
}

func TestCityMatcher_EmptyQueryMatchesAll(t *testing.T) {
	assert.Nil(t, app.CityMatcher(""))
	assert.Nil(t, app.CityMatcher("   "))
}

// Package entity provides the payload types served by the API.
// Each type reports its own missing required fields; none of them know about
// storage or transport.
package entity

import "strings"

// Validator is implemented by payloads with required fields.
type Validator interface {
	// Missing returns the JSON names of required fields that are blank.
	Missing() []string
}

// Person is a named person.
type Person struct {
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
}

func (p Person) Missing() []string {
	return missing(
		field{"firstName", p.FirstName},
		field{"lastName", p.LastName},
	)
}

// Product is a catalogue item. Price is in minor units (cents).
type Product struct {
	Name  string `json:"name" yaml:"name"`
	Price int64  `json:"price" yaml:"price"`
}

func (p Product) Missing() []string {
	m := missing(field{"name", p.Name})
	if p.Price < 0 {
		m = append(m, "price")
	}
	return m
}

// HousingLocation is a listing shown by the housing search.
type HousingLocation struct {
	Name           string `json:"name" yaml:"name"`
	City           string `json:"city" yaml:"city"`
	State          string `json:"state" yaml:"state"`
	Photo          string `json:"photo,omitempty" yaml:"photo"`
	AvailableUnits int    `json:"availableUnits" yaml:"availableUnits"`
	Wifi           bool   `json:"wifi" yaml:"wifi"`
	Laundry        bool   `json:"laundry" yaml:"laundry"`
}

func (h HousingLocation) Missing() []string {
	m := missing(
		field{"name", h.Name},
		field{"city", h.City},
		field{"state", h.State},
	)
	if h.AvailableUnits < 0 {
		m = append(m, "availableUnits")
	}
	return m
}

// Account is a user account managed by administrators.
type Account struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

func (a Account) Missing() []string {
	m := missing(field{"name", a.Name}, field{"email", a.Email})
	if a.Email != "" && !strings.Contains(a.Email, "@") {
		m = append(m, "email")
	}
	return m
}

type field struct {
	name  string
	value string
}

func missing(fields ...field) []string {
	var names []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			names = append(names, f.name)
		}
	}
	return names
}

package calendar

import "time"

// Catalog provides the fixed annual holiday table (records without a year)
type Catalog interface {
	FixedHolidays() ([]Holiday, error)
}

var defaultCatalog = []Holiday{
	{Day: 1, Month: time.January, Description: "Año Nuevo", Kind: KindNational},
	{Day: 6, Month: time.January, Description: "Epifanía del Señor", Kind: KindNational},
	{Day: 1, Month: time.May, Description: "Día del Trabajo", Kind: KindNational},
	{Day: 30, Month: time.May, Description: "Día de Canarias", Kind: KindRegional},
	{Day: 15, Month: time.August, Description: "Asunción de la Virgen", Kind: KindNational},
	{Day: 12, Month: time.October, Description: "Fiesta Nacional de España", Kind: KindNational},
	{Day: 1, Month: time.November, Description: "Todos los Santos", Kind: KindNational},
	{Day: 6, Month: time.December, Description: "Día de la Constitución", Kind: KindNational},
	{Day: 8, Month: time.December, Description: "Inmaculada Concepción", Kind: KindNational},
	{Day: 25, Month: time.December, Description: "Navidad", Kind: KindNational},
}

// DefaultCatalog returns a copy of the built-in fixed holiday table
func DefaultCatalog() []Holiday {
	out := make([]Holiday, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

// BuiltinCatalog serves DefaultCatalog
type BuiltinCatalog struct{}

// FixedHolidays implements Catalog
func (BuiltinCatalog) FixedHolidays() ([]Holiday, error) {
	return DefaultCatalog(), nil
}

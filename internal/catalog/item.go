package catalog

import "errors"

// ErrNotFound is returned when no catalog item matches the requested name.
var ErrNotFound = errors.New("catalog item not found")

// Item is a read-mostly catalog entry. Stock and Reserved are tracked in
// whole units of MeasurementType; Step is the smallest order increment.
type Item struct {
	Name            string     `db:"name" json:"name" yaml:"name"`
	Stock           int        `db:"stock" json:"stock" yaml:"stock"`
	Info            string     `db:"info" json:"info" yaml:"info"`
	MeasurementType string     `db:"measurement_type" json:"measurement_type" yaml:"measurement_type"`
	Reserved        int        `db:"reserved" json:"reserved" yaml:"reserved"`
	Tags            StringList `db:"tags" json:"tags" yaml:"tags"`
	Currency        string     `db:"currency" json:"currency" yaml:"currency"`
	Price           float64    `db:"price" json:"price" yaml:"price"`
	Step            int        `db:"step" json:"step" yaml:"step"`
}

// Available reports how many units can still be ordered.
func (i Item) Available() int {
	n := i.Stock - i.Reserved
	if n < 0 {
		return 0
	}
	return n
}

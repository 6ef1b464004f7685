package market

import (
	"errors"
	"fmt"
	"math"
)

// Instrument holds static per-contract parameters sourced from reference
// data. Immutable after construction.
type Instrument struct {
	Symbol         string
	TickSize       float64
	PricePrecision int // decimal places
	MinPrice       float64
	MaxPrice       float64
	Tolerance      float64 // fraction shaved off the exchange price limits
}

// NewInstrument validates the parameters and returns the instrument.
func NewInstrument(symbol string, tick float64, precision int, minPrice, maxPrice, tolerance float64) (Instrument, error) {
	if symbol == "" {
		return Instrument{}, errors.New("symbol is required")
	}
	if tick <= 0 {
		return Instrument{}, fmt.Errorf("instrument %s: tickSize must be > 0", symbol)
	}
	if precision < 0 {
		return Instrument{}, fmt.Errorf("instrument %s: pricePrecision must be >= 0", symbol)
	}
	if minPrice < 0 || maxPrice <= minPrice {
		return Instrument{}, fmt.Errorf("instrument %s: price limits invalid (min=%v max=%v)", symbol, minPrice, maxPrice)
	}
	if tolerance < 0 || tolerance >= 1 {
		return Instrument{}, fmt.Errorf("instrument %s: tolerance must be in [0,1)", symbol)
	}
	return Instrument{
		Symbol:         symbol,
		TickSize:       tick,
		PricePrecision: precision,
		MinPrice:       minPrice,
		MaxPrice:       maxPrice,
		Tolerance:      tolerance,
	}, nil
}

// RoundPrice rounds a price to the instrument's precision.
func (i Instrument) RoundPrice(px float64) float64 {
	pow := math.Pow(10, float64(i.PricePrecision))
	return math.Round(px*pow) / pow
}

// LowerBand is the lowest acceptable bid: minPrice plus the tolerance margin.
func (i Instrument) LowerBand() float64 {
	return i.RoundPrice(i.MinPrice * (1 + i.Tolerance))
}

// UpperBand is the highest acceptable offer: maxPrice minus the tolerance margin.
func (i Instrument) UpperBand() float64 {
	return i.RoundPrice(i.MaxPrice * (1 - i.Tolerance))
}

// WithinBands reports whether the top of book sits inside the tolerated
// price limits.
func (i Instrument) WithinBands(bid, offer float64) bool {
	return bid >= i.LowerBand() && offer <= i.UpperBand()
}

// InsideBid is the requote price one tick above the current bid.
func (i Instrument) InsideBid(bid float64) float64 {
	return i.RoundPrice(bid + i.TickSize)
}

// InsideOffer is the requote price one tick below the current offer.
func (i Instrument) InsideOffer(offer float64) float64 {
	return i.RoundPrice(offer - i.TickSize)
}

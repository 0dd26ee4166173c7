package models

import "errors"

var (
	// ErrPriceUnavailable — нет ни entry, ни mid-цены: брекет строить не из чего.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrInvalidInput — неположительный размер/цена там, где они обязаны быть > 0.
	ErrInvalidInput = errors.New("invalid input")
)

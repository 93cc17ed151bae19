package main

import "github.com/shopspring/decimal"

func parseDecimalFlag(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

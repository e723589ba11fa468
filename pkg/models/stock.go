package models

import "github.com/shopspring/decimal"

// StockSnapshot is the on-hand quantity for one ERP reference at the time
// the ERP extract was taken.
type StockSnapshot struct {
	ERPRef        string          `json:"erp_ref"`
	Name          string          `json:"name"`
	Cases         decimal.Decimal `json:"cases"`
	UnitsPerCase  int             `json:"units_per_case"`
	VolumePerCase decimal.Decimal `json:"volume_per_case"`
}

// Units returns cases × units per case.
func (s *StockSnapshot) Units() decimal.Decimal {
	return s.Cases.Mul(decimal.NewFromInt(int64(s.UnitsPerCase)))
}

// Volume returns cases × volume per case.
func (s *StockSnapshot) Volume() decimal.Decimal {
	return s.Cases.Mul(s.VolumePerCase)
}

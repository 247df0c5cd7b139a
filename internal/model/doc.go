// Package model defines shared data types used across the stock ETL pipeline.
//
// Conventions:
//   - Dates: calendar days with no time component (model.Date)
//   - Prices: float64 dollars; derived percentages rounded to 2 decimals
//   - Nullable fields: pointer types (*float64, *int64), nil = NULL
//   - Timestamps: time.Time in UTC
package model

// Package extract fetches daily OHLCV bars from the upstream market
// data providers and emits them as raw tables.
//
// Each provider implements Client. FetchDaily returns one table per
// call covering every requested symbol, with the canonical raw columns
// (date, symbol, open, high, low, close, volume, data_source,
// extracted_at). Provider responses that are malformed for one symbol
// fail the whole fetch so a partial extraction never reaches
// validation.
package extract

// Package models defines the persisted document and value types for sodarota.
//
// # Document
//
// The whole application state lives in one Ledger document:
//   - People: the ordered rotation; order decides whose turn it is
//   - PaidDates: sparse map from calendar date key ("2006-01-02") to the payer's name
//   - Chat: append-only message log
//
// People are identified by their display name. There are no user accounts; the
// name is the key and duplicates are rejected.
//
// # Design Principles
//
// 1. **One document**: every mutation replaces the whole document, never a part of it
// 2. **Dates are keys**: a calendar date maps to at most one payer
// 3. **Wire compatibility**: JSON field names match the data.json layout of the
//    first version of the app, so existing files load unchanged
package models

// Package models defines the core domain models for tally.
//
// # Money
//
// All monetary amounts are int64 values in minor currency units (cents,
// pence, ...). The currency itself travels alongside as an ISO code string.
// Floating point is never used for money.
//
// # Dates
//
// Calendar dates use the Date type: day granularity, anchored to UTC
// midnight. Parsing and normalization happen once at the boundary
// (HTTP layer, storage layer); the computation packages only ever see
// Date values.
//
// # Participants
//
// A contribution's participant is either assigned to a user or an open
// placeholder slot that someone can claim later. The Participant type makes
// that distinction explicit instead of relying on a nullable user id.
package models

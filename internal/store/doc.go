// Package store defines the persistence contract for review scheduling state.
// The contract is deliberately small: read one record, compare-and-set one
// record, list and delete a learner's records. Implementations live under
// internal/platform (postgres, badgerkv, memory).
package store

// Package domain contains the core entities of the conjugation practice engine:
// review items and their scheduling state, derived difficulty tiers, attempt
// results, and the read-only catalog entries that exercises are built from.
// It is independent of any storage engine or delivery mechanism.
package domain

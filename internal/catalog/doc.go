// Package catalog provides read-only access to the conjugation catalog: the
// canonical answer, accepted alternatives and explanation for each
// (verb, tense, person) exercise.
//
// Catalogs are loaded from YAML files. Session constraints are evaluated
// against entries with Matcher, which supports an optional CEL expression for
// filters the structured fields cannot express.
package catalog

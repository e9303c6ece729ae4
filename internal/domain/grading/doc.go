// Package grading implements the answer validator: it normalizes a submitted
// conjugation, compares it with the canonical form and the accepted
// alternatives, and turns the comparison plus response latency into a score
// and a 0–5 quality rating for the scheduler.
//
// Accents are grammatically significant, so they are never stripped. An
// accent-free spelling is accepted only when the catalog lists it as an
// alternative.
package grading

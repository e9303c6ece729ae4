// Package events publishes in-process notifications about graded attempts and
// progress resets. Handlers feed analytics logging and metrics; the scheduling
// engine never depends on them.
package events

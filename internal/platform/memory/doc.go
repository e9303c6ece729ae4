// Package memory provides an in-process store.ReviewStateStore. State is lost
// on restart; it backs tests and the "memory" database driver.
package memory

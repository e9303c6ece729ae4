// Package badgerkv stores review scheduling state in an embedded BadgerDB
// key/value database. It suits single-node deployments that do not want to
// run PostgreSQL.
//
// Records are JSON-encoded under keys of the form
//
//	rs/<escaped learner id>/<item key>
//
// so that a learner's records form one contiguous, key-ordered range.
package badgerkv

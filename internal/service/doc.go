// Package service contains the application use cases of the drill engine.
//
// The root package holds the errors shared by every use case. The use cases
// themselves live in subpackages:
//
//   - attempt: grade a submission and apply it to the learner's review state
//   - queue: due items and aggregate statistics (read-only)
//   - selector: assemble a practice session from due items and the catalog
//   - auth: bearer token validation and issuance
//
// Services receive their collaborators through constructor injection and
// depend on store interfaces, never on a concrete storage backend.
package service

// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It translates HTTP concerns into calls on the
// session selector, attempt, and review queue services.
package api

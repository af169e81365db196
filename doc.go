// Package guauth implements the client half of a phone-number authentication
// flow: OTP request and verification, username availability, registration,
// login, password reset, and logout against a REST backend, plus the state
// machine that sequences those steps for a presentation layer.
//
// The package exposes two cooperating components. [Client] is a typed wrapper
// over the backend endpoints that also owns the persisted session (token and
// user ID, stored through a pluggable [SessionStore]). [Flow] consumes a
// [Client] (or any [AuthAPI]) and drives the step-by-step flow: it holds the
// in-progress form state, debounces username-availability checks, and reacts
// to session changes so that "login succeeded" and "a background 401 cleared
// the token" converge on the same transitions.
//
// # Architecture boundaries
//
// guauth is the public surface. It exposes [Client], [Flow], [Builder],
// [Config], the [SessionStore] implementations, and value types
// (FlowState, Session, Event, MetricsSnapshot). Rendering, input widgets,
// and navigation belong to the caller; the backend is reached only through
// the configured base URL.
//
// # What this package must NOT do
//
//   - Retry or queue requests: one submit is one call, resubmission is the
//     user's decision.
//   - Hash, encrypt, or otherwise transform credentials beyond what the
//     transport provides.
//   - Keep secrets longer than needed: password, confirmation, and OTP
//     fields are cleared as soon as registration or login succeeds.
//
// # Concurrency contract
//
// FlowState has a single owner. Flow methods are safe to call from multiple
// goroutines, but a submit that arrives while another flow action is still
// outstanding is ignored. Session change notifications are delivered and
// handled strictly in the order the changes occurred.
package guauth

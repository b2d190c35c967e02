// Package dispatch resolves EventCalls to registered handlers.
//
// The engine never invokes handlers itself: an EventCall carries only an
// opaque EventClass. A Registry maps each class to an ordered list of
// Handlers and Dispatch runs them in emission order on the caller's
// goroutine, outside any engine lock.
package dispatch

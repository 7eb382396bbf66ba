// Package clock abstracts monotonic time and bounded sleeping so the
// mesh protocol's timeouts and backoff loops can be driven deterministically
// in tests, the way internal/meshtest's fakes drive the radio and network
// facades.
package clock

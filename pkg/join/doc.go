// Package join implements the non-master address-acquisition state
// machine: poll for nearby parents, request an address from each
// candidate in turn, and confirm the offer that validates, with the
// backoff and retry budget the original RF24Mesh firmware used.
package join

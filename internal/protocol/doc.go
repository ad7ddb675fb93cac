// Package protocol owns the IDTP wire contract.
//
// Ownership boundary:
// - fixed header layout and constants
// - operating modes and trailer sizing
// - codec error taxonomy
//
// Frame assembly lives in protocol/frame, integrity primitives in
// protocol/integrity and payload records in protocol/payload.
package protocol

package protocol

// Code classifies an error reply. Every code is recoverable: the
// connection stays open and no state changes.
type Code string

const (
	CodeProtocol  Code = "protocol_error" // malformed or unknown message
	CodeNotFound  Code = "not_found"      // room or track id does not exist
	CodeForbidden Code = "forbidden"      // non-host attempted a host-only action
	CodeConflict  Code = "conflict"       // duplicate vote, duplicate room code, already bound
	CodeLimited   Code = "rate_limited"   // too many submissions in the window
	CodeInternal  Code = "internal_error" // handler panic, recovered
)

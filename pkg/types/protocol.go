package types

// result of a protocol call as seen by the remote client
type Result int32

const (
	ResultOK     Result = iota // request served
	ResultRetry                // lock busy, call acquire again later
	ResultRPCErr               // invalid request (e.g. bad release)
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultRetry:
		return "RETRY"
	case ResultRPCErr:
		return "RPCERR"
	default:
		return "UNKNOWN"
	}
}

// acknowledgement returned by a client for a revoke or retry callback
// the server records it but never branches on its value
type Ack int32

// outcome of an acquire call
type AcquireResult struct {
	Result Result
	// only meaningful when Result == ResultOK
	// true if other clients are already queued, a hint that a revoke may follow soon
	Waiters bool
}

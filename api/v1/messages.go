package v1

// Status is the protocol-level result carried in response bodies. Protocol
// outcomes are never reported as gRPC errors; callers inspect Status.
type Status int32

const (
	Status_OK     Status = 0
	Status_RETRY  Status = 1
	Status_RPCERR Status = 2
)

func (s Status) String() string {
	switch s {
	case Status_OK:
		return "OK"
	case Status_RETRY:
		return "RETRY"
	case Status_RPCERR:
		return "RPCERR"
	default:
		return "UNKNOWN"
	}
}

type AcquireRequest struct {
	LockId   int64  `json:"lock_id"`
	ClientId string `json:"client_id"`
}

type AcquireResponse struct {
	Status Status `json:"status"`
	// Waiters is set on OK when other clients are already queued for the lock.
	Waiters bool `json:"waiters"`
}

type ReleaseRequest struct {
	LockId   int64  `json:"lock_id"`
	ClientId string `json:"client_id"`
}

type ReleaseResponse struct {
	Status Status `json:"status"`
}

type GetStatusRequest struct{}

type Stats struct {
	Locks   int32  `json:"locks"`
	Free    int32  `json:"free"`
	Lent    int32  `json:"lent"`
	Revoked int32  `json:"revoked"`
	Waiters int32  `json:"waiters"`
	Grants  uint64 `json:"grants"`
}

type GetStatusResponse struct {
	NodeId        string `json:"node_id"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Stats         *Stats `json:"stats"`
}

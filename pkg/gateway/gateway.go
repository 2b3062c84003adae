package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// HTTP/JSON front for the lock service, forwarding to the gRPC endpoint
type Server struct {
	httpServer *http.Server
	grpcAddr   string
	conn       *grpc.ClientConn
}

func NewServer(httpAddr, grpcAddr string) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr: httpAddr,
		},
		grpcAddr: grpcAddr,
	}
}

func (s *Server) Start(ctx context.Context) error {
	conn, err := grpc.NewClient(s.grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to dial grpc endpoint: %w", err)
	}
	s.conn = conn

	handler, err := NewHandler(pb.NewLockServiceClient(conn))
	if err != nil {
		return fmt.Errorf("failed to register gateway: %w", err)
	}
	s.httpServer.Handler = handler

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP gateway: %w", err)
	}

	return nil
}

// shuts the HTTP listener down and closes the upstream connection,
// both are attempted and both errors are reported
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.conn != nil {
		if cerr := s.conn.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close grpc connection: %w", cerr))
		}
	}
	return err
}

// request body for acquire and release
type lockRequest struct {
	ClientID string `json:"client_id"`
}

type statResponse struct {
	LockID       int64 `json:"lock_id"`
	AcquireCount int64 `json:"acquire_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// builds the routes on top of a lock service client
//
//	POST /v1/locks/{lock_id}/acquire  {"client_id": "..."}
//	POST /v1/locks/{lock_id}/release  {"client_id": "..."}
//	GET  /v1/locks/{lock_id}/stat
//	GET  /v1/status
//	GET  /metrics
func NewHandler(client pb.LockServiceClient) (http.Handler, error) {
	mux := runtime.NewServeMux()
	h := &handlers{client: client, marshaler: &runtime.JSONPb{}}

	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, "/v1/locks/{lock_id}/acquire", h.acquire},
		{http.MethodPost, "/v1/locks/{lock_id}/release", h.release},
		{http.MethodGet, "/v1/locks/{lock_id}/stat", h.stat},
		{http.MethodGet, "/v1/status", h.status},
		{http.MethodGet, "/metrics", h.metrics},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return nil, fmt.Errorf("route %s %s: %w", r.method, r.pattern, err)
		}
	}

	return mux, nil
}

type handlers struct {
	client    pb.LockServiceClient
	marshaler runtime.Marshaler
}

func (h *handlers) acquire(w http.ResponseWriter, r *http.Request, params map[string]string) {
	lockID, body, ok := h.decodeLockRequest(w, r, params)
	if !ok {
		return
	}

	resp, err := h.client.Acquire(r.Context(), &pb.AcquireRequest{LockId: lockID, ClientId: body.ClientID})
	if err != nil {
		h.writeGRPCError(w, err)
		return
	}

	//RETRY is a normal answer, the caller is expected to come back
	h.write(w, http.StatusOK, resp)
}

func (h *handlers) release(w http.ResponseWriter, r *http.Request, params map[string]string) {
	lockID, body, ok := h.decodeLockRequest(w, r, params)
	if !ok {
		return
	}

	resp, err := h.client.Release(r.Context(), &pb.ReleaseRequest{LockId: lockID, ClientId: body.ClientID})
	if err != nil {
		h.writeGRPCError(w, err)
		return
	}

	code := http.StatusOK
	if resp.Status == pb.Status_RPCERR {
		code = http.StatusConflict
	}
	h.write(w, code, resp)
}

func (h *handlers) stat(w http.ResponseWriter, r *http.Request, params map[string]string) {
	lockID, err := parseLockID(params)
	if err != nil {
		h.write(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	resp, err := h.client.Stat(r.Context(), wrapperspb.Int64(lockID))
	if err != nil {
		h.writeGRPCError(w, err)
		return
	}

	h.write(w, http.StatusOK, statResponse{LockID: lockID, AcquireCount: resp.GetValue()})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := h.client.GetStatus(r.Context(), &pb.GetStatusRequest{})
	if err != nil {
		h.writeGRPCError(w, err)
		return
	}
	h.write(w, http.StatusOK, resp)
}

func (h *handlers) metrics(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (h *handlers) decodeLockRequest(w http.ResponseWriter, r *http.Request, params map[string]string) (int64, lockRequest, bool) {
	var body lockRequest

	lockID, err := parseLockID(params)
	if err != nil {
		h.write(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return 0, body, false
	}

	if err := h.marshaler.NewDecoder(r.Body).Decode(&body); err != nil {
		h.write(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid body: %v", err)})
		return 0, body, false
	}

	return lockID, body, true
}

func (h *handlers) writeGRPCError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	h.write(w, runtime.HTTPStatusFromCode(st.Code()), errorResponse{Error: st.Message()})
}

func (h *handlers) write(w http.ResponseWriter, code int, v any) {
	data, err := h.marshaler.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", h.marshaler.ContentType(v))
	w.WriteHeader(code)
	w.Write(data)
}

func parseLockID(params map[string]string) (int64, error) {
	raw, ok := params["lock_id"]
	if !ok {
		return 0, fmt.Errorf("missing lock_id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lock_id %q: %w", raw, err)
	}
	return id, nil
}

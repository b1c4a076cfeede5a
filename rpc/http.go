package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"launchpad/core"
	"launchpad/observability"
	"launchpad/observability/logging"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	requestIDHeader = "X-Request-ID"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeRateLimited    = -32020
)

// ServerConfig configures authentication and throttling.
type ServerConfig struct {
	JWTSecret         string
	JWTIssuer         string
	RequestsPerMinute float64
	Burst             int
	ReadTimeout       time.Duration
	TrustProxyHeaders bool
}

type Server struct {
	node        *core.Node
	logger      *slog.Logger
	auth        *authenticator
	limiter     *rateLimiter
	readTimeout time.Duration
}

func NewServer(node *core.Node, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	return &Server{
		node:        node,
		logger:      logger,
		auth:        newAuthenticator(cfg.JWTSecret, cfg.JWTIssuer),
		limiter:     newRateLimiter(cfg.RequestsPerMinute, cfg.Burst, cfg.TrustProxyHeaders),
		readTimeout: readTimeout,
	}
}

// Handler returns the HTTP routes served by the node.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.MetricsHandler())
	r.With(s.limiter.middleware).Post("/", otelhttp.NewHandler(http.HandlerFunc(s.handle), "jsonrpc").ServeHTTP)
	return r
}

// Start serves JSON-RPC on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.readTimeout,
		ReadTimeout:       s.readTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("json-rpc listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// handlerFunc serves a decoded request. caller is only populated for methods
// that require authentication.
type handlerFunc func(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int)

type method struct {
	module string
	auth   bool
	fn     handlerFunc
}

func (s *Server) methods() map[string]method {
	return map[string]method{
		"launch_create":           {module: "launch", auth: true, fn: s.handleLaunchCreate},
		"launch_purchase":         {module: "launch", auth: true, fn: s.handleLaunchPurchase},
		"launch_withdraw":         {module: "launch", auth: true, fn: s.handleLaunchWithdraw},
		"launch_update":           {module: "launch", auth: true, fn: s.handleLaunchUpdate},
		"launch_claimVested":      {module: "launch", auth: true, fn: s.handleLaunchClaimVested},
		"launch_get":              {module: "launch", fn: s.handleLaunchGet},
		"launch_list":             {module: "launch", fn: s.handleLaunchList},
		"launch_price":            {module: "launch", fn: s.handleLaunchPrice},
		"launch_quote":            {module: "launch", fn: s.handleLaunchQuote},
		"launch_vesting":          {module: "launch", fn: s.handleLaunchVesting},
		"affiliate_register":      {module: "affiliate", auth: true, fn: s.handleAffiliateRegister},
		"affiliate_setRate":       {module: "affiliate", auth: true, fn: s.handleAffiliateSetRate},
		"affiliate_updateRate":    {module: "affiliate", auth: true, fn: s.handleAffiliateUpdateRate},
		"affiliate_recordClicks":  {module: "affiliate", auth: true, fn: s.handleAffiliateRecordClicks},
		"affiliate_get":           {module: "affiliate", fn: s.handleAffiliateGet},
		"affiliate_suggestedRate": {module: "affiliate", fn: s.handleAffiliateSuggestedRate},
		"token_balance":           {module: "token", fn: s.handleTokenBalance},
		"token_transfer":          {module: "token", auth: true, fn: s.handleTokenTransfer},
		"events_recent":           {module: "events", fn: s.handleEventsRecent},
	}
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	m, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}

	started := time.Now()
	logger := s.logger.With(
		slog.String("request", requestIDFrom(r.Context())),
		slog.String("method", req.Method),
	)

	var caller [20]byte
	if m.auth {
		addr, authErr := s.auth.caller(r)
		if authErr != nil {
			observability.ModuleMetrics().Observe(m.module, req.Method, authErr.Code, time.Since(started))
			logger.Warn("rpc unauthorized",
				logging.MaskField("authorization", r.Header.Get("Authorization")),
				slog.String("error", authErr.Message))
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		caller = addr
		logger = logger.With(slog.String("caller", formatAddress(caller)))
	}

	result, rpcErr, status := m.fn(r.Context(), caller, req)
	if rpcErr != nil {
		observability.ModuleMetrics().Observe(m.module, req.Method, rpcErr.Code, time.Since(started))
		logger.Info("rpc failed", slog.Int("code", rpcErr.Code), slog.String("error", rpcErr.Message))
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	observability.ModuleMetrics().Observe(m.module, req.Method, 0, time.Since(started))
	writeResult(w, req.ID, result)
}

type ctxKey string

const requestIDKey ctxKey = "rpc.request_id"

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

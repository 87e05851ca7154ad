package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"mvxlend/core"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "MVXLEND_RPC_TOKEN"
	mutationsPerMin = 60
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeNotFound       = -32004
	codeConflict       = -32009
	codeRejected       = -32010
	codeRateLimited    = -32020
	codePaused         = -32021
)

type Server struct {
	node *core.Node
	log  *slog.Logger

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	authToken string
}

func NewServer(node *core.Node, log *slog.Logger) *Server {
	return &Server{
		node:      node,
		log:       log,
		limiters:  make(map[string]*rate.Limiter),
		authToken: strings.TrimSpace(os.Getenv(authTokenEnv)),
	}
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
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

// Handler returns the JSON-RPC entry point for mounting on a router.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}

	handler, ok := s.route(req.Method)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method", req.Method)
		return
	}
	if s.log != nil {
		s.log.Debug("rpc request", slog.String("method", req.Method))
	}
	handler(w, r, &req)
}

type handlerFunc func(http.ResponseWriter, *http.Request, *RPCRequest)

func (s *Server) route(method string) (handlerFunc, bool) {
	switch method {
	case "lend_setSupportedNFTContract":
		return s.admin(s.rateLimited(s.handleSetSupportedNFTContract)), true
	case "lend_setSupportedPaymentToken":
		return s.admin(s.rateLimited(s.handleSetSupportedPaymentToken)), true
	case "lend_setNFTValuation":
		return s.admin(s.rateLimited(s.handleSetNFTValuation)), true
	case "lend_setPaused":
		return s.admin(s.rateLimited(s.handleSetPaused)), true
	case "lend_markDefaulted":
		return s.admin(s.rateLimited(s.handleMarkDefaulted)), true
	case "lend_openLoan":
		return s.rateLimited(s.handleOpenLoan), true
	case "lend_repay":
		return s.rateLimited(s.handleRepay), true
	case "lend_liquidate":
		return s.rateLimited(s.handleLiquidate), true
	case "lend_getLoan":
		return s.handleGetLoan, true
	case "lend_getValuation":
		return s.handleGetValuation, true
	case "lend_quoteInterest":
		return s.handleQuoteInterest, true
	case "token_mint":
		return s.admin(s.rateLimited(s.handleTokenMint)), true
	case "token_balance":
		return s.handleTokenBalance, true
	case "nft_mint":
		return s.admin(s.rateLimited(s.handleNFTMint)), true
	case "nft_owner":
		return s.handleNFTOwner, true
	}
	return nil, false
}

// admin enforces the bearer token on privileged methods. When no token is
// configured the check passes and the on-ledger admin address check is the
// only gate; that is the local development mode.
func (s *Server) admin(next handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
		if s.authToken != "" {
			supplied := strings.TrimSpace(r.Header.Get("Authorization"))
			supplied = strings.TrimPrefix(supplied, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
				writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "invalid or missing auth token", nil)
				return
			}
		}
		next(w, r, req)
	}
}

func (s *Server) rateLimited(next handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
		if !s.allow(sourceKey(r)) {
			writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
			return
		}
		next(w, r, req)
	}
}

func (s *Server) allow(source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/mutationsPerMin), mutationsPerMin)
		s.limiters[source] = limiter
	}
	return limiter.Allow()
}

func sourceKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

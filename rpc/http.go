package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tipfinity/core"
	"tipfinity/core/types"
	"tipfinity/crypto"
	"tipfinity/native/creator"
	"tipfinity/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	maxTipsLimit    = core.MaxTipsPage
)

const (
	codeParseError        = -32700
	codeInvalidRequest    = -32600
	codeMethodNotFound    = -32601
	codeInvalidParams     = -32602
	codeServerError       = -32000
	codeUnauthorized      = -32001
	codeNotFound          = -32004
	codeTransactionFailed = -32010
	codeRateLimited       = -32020
)

// ServerConfig bounds the JSON-RPC surface.
type ServerConfig struct {
	// AuthToken, when set, is required as a bearer token on tip_sendTransaction.
	AuthToken         string
	RequestsPerMinute float64
	Burst             int
	MaxBodyBytes      int64
	// TrustedProxies lists peers whose forwarding headers name the client.
	TrustedProxies []string
}

type Server struct {
	node    *core.Node
	cfg     ServerConfig
	limiter *rateLimiter
	proxies proxyTrust
	logger  *slog.Logger
}

func NewServer(node *core.Node, cfg ServerConfig, logger *slog.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = maxRequestBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	return &Server{
		node:    node,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RequestsPerMinute, cfg.Burst),
		proxies: newProxyTrust(cfg.TrustedProxies),
		logger:  logger.With(slog.String("component", "rpc")),
	}
}

// Handler returns the routed HTTP surface: JSON-RPC on POST /, the tip event
// stream, metrics and a health probe.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.proxies.clientSource))
		r.Post("/", s.handle)
		r.Get("/ws/tips", s.handleTipsWS)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := map[string]interface{}{
			"status":      "ok",
			"chainId":     s.node.ChainID(),
			"subscribers": s.node.TipSubscribers(),
		}
		if genesisTime := s.node.GenesisTime(); !genesisTime.IsZero() {
			body["genesisTime"] = genesisTime.Format(time.RFC3339)
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	return r
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

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
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

// statusRecorder captures the status written so it can be reported to
// metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	method := s.serve(rec, r)
	observability.RPC().Observe(method, rec.status, time.Since(start))
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) string {
	reader := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
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
			message = fmt.Sprintf("request body exceeds %d bytes", s.cfg.MaxBodyBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return ""
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return ""
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return ""
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return req.Method
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return ""
	}

	switch req.Method {
	case "tip_sendTransaction":
		if authErr := s.requireAuth(r); authErr != nil {
			observability.RPC().RecordThrottle("unauthorized")
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return req.Method
		}
		s.handleSendTransaction(w, req)
	case "tip_getAccount":
		s.handleGetAccount(w, req)
	case "tip_getCreator":
		s.handleGetCreator(w, req)
	case "tip_getTip":
		s.handleGetTip(w, req)
	case "tip_listTips":
		s.handleListTips(w, req)
	case "tip_deriveAddresses":
		s.handleDeriveAddresses(w, req)
	case "tip_chainId":
		writeResult(w, req.ID, s.node.ChainID())
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
		return "unknown"
	}
	return req.Method
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.cfg.AuthToken == "" {
		return nil
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func singleParam(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected exactly one parameter", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter", err.Error())
		return false
	}
	return true
}

func parseAddressParam(w http.ResponseWriter, req *RPCRequest, field, value string) ([20]byte, bool) {
	addr, err := crypto.ParseAddress(strings.TrimSpace(value))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid %s address", field), err.Error())
		return addr, false
	}
	return addr, true
}

func (s *Server) handleSendTransaction(w http.ResponseWriter, req *RPCRequest) {
	tx := new(types.Transaction)
	if !singleParam(w, req, tx) {
		return
	}
	receipt, err := s.node.SubmitTransaction(tx)
	if err != nil {
		data := TransactionError{
			Kind:    receipt.ErrorKind,
			Code:    receipt.ErrorCode,
			Message: receipt.Error,
		}
		if receipt.TxHash != ([32]byte{}) {
			data.TxHash = hexHash(receipt.TxHash)
		}
		status := http.StatusBadRequest
		if receipt.ErrorKind == creator.KindInternal.String() {
			status = http.StatusInternalServerError
		}
		writeError(w, status, req.ID, codeTransactionFailed, "transaction failed", data)
		return
	}
	writeResult(w, req.ID, receiptResultFrom(receipt))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, req *RPCRequest) {
	var raw string
	if !singleParam(w, req, &raw) {
		return
	}
	addr, ok := parseAddressParam(w, req, "account", raw)
	if !ok {
		return
	}
	account, err := s.node.Account(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load account", err.Error())
		return
	}
	writeResult(w, req.ID, AccountResult{Address: crypto.FormatAddress(addr), Balance: account.Balance, Nonce: account.Nonce})
}

func (s *Server) writeLookupError(w http.ResponseWriter, req *RPCRequest, err error) {
	switch {
	case errors.Is(err, creator.ErrCreatorNotFound):
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "creator not found", nil)
	case errors.Is(err, creator.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address does not hold a creator record", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load record", err.Error())
	}
}

func (s *Server) handleGetCreator(w http.ResponseWriter, req *RPCRequest) {
	var query creatorQuery
	if !singleParam(w, req, &query) {
		return
	}
	var addr [20]byte
	switch {
	case strings.TrimSpace(query.Address) != "":
		parsed, ok := parseAddressParam(w, req, "creator", query.Address)
		if !ok {
			return
		}
		addr = parsed
	case strings.TrimSpace(query.Owner) != "":
		owner, ok := parseAddressParam(w, req, "owner", query.Owner)
		if !ok {
			return
		}
		addr = creator.DeriveCreatorAddress(owner)
	default:
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address or owner required", nil)
		return
	}
	record, err := s.node.Creator(addr)
	if err != nil {
		s.writeLookupError(w, req, err)
		return
	}
	writeResult(w, req.ID, creatorResultFrom(addr, record))
}

func (s *Server) handleGetTip(w http.ResponseWriter, req *RPCRequest) {
	var query tipQuery
	if !singleParam(w, req, &query) {
		return
	}
	addr, ok := parseAddressParam(w, req, "creator", query.Creator)
	if !ok {
		return
	}
	entry, found, err := s.node.Tip(addr, query.Sequence)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load tip", err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "tip not found", nil)
		return
	}
	writeResult(w, req.ID, tipResultFrom(entry.Address, entry.Tip))
}

func (s *Server) handleListTips(w http.ResponseWriter, req *RPCRequest) {
	var query listTipsQuery
	if !singleParam(w, req, &query) {
		return
	}
	addr, ok := parseAddressParam(w, req, "creator", query.Creator)
	if !ok {
		return
	}
	if query.Limit > maxTipsLimit {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("limit must be <= %d", maxTipsLimit), nil)
		return
	}
	entries, record, err := s.node.Tips(addr, query.Offset, query.Limit)
	if err != nil {
		s.writeLookupError(w, req, err)
		return
	}
	page := TipsPage{Creator: creatorResultFrom(addr, record), Tips: make([]TipResult, 0, len(entries))}
	for _, entry := range entries {
		page.Tips = append(page.Tips, tipResultFrom(entry.Address, entry.Tip))
	}
	if n := len(entries); n > 0 {
		next := entries[n-1].Tip.Sequence + 1
		if next < record.TipCount {
			page.NextOffset = &next
		}
	}
	writeResult(w, req.ID, page)
}

func (s *Server) handleDeriveAddresses(w http.ResponseWriter, req *RPCRequest) {
	var query deriveQuery
	if !singleParam(w, req, &query) {
		return
	}
	owner, ok := parseAddressParam(w, req, "owner", query.Owner)
	if !ok {
		return
	}
	creatorAddr := creator.DeriveCreatorAddress(owner)
	result := DerivedAddresses{Creator: crypto.FormatAddress(creatorAddr)}
	if query.Sequence != nil {
		result.Tip = crypto.FormatAddress(creator.DeriveTipAddress(creatorAddr, *query.Sequence))
	}
	writeResult(w, req.ID, result)
}

package creatorgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/unicode/norm"

	"tipfinity/crypto"
	"tipfinity/observability/logging"
)

const maxBodyBytes = 1 << 16 // 64 KiB

// msgEmailRequired is returned when an unknown wallet links without an email.
const msgEmailRequired = "Email required for new wallet onboarding"

// PriceQuoter returns the USD price of the native asset, 0 when unknown.
type PriceQuoter interface {
	NativeUSD(ctx context.Context) float64
}

// Server implements the HTTP handlers for the creator gateway.
type Server struct {
	store    *Store
	sessions *Sessions
	prices   PriceQuoter
	logger   *slog.Logger
}

func NewServer(store *Store, sessions *Sessions, prices PriceQuoter, logger *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("store required")
	}
	if sessions == nil {
		return nil, errors.New("sessions required")
	}
	if prices == nil {
		return nil, errors.New("price quoter required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, sessions: sessions, prices: prices, logger: logger}, nil
}

// Handler returns the routed HTTP surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/wallet/link", s.handleLinkWallet)
	r.Get("/price/native", s.handleNativePrice)
	r.Get("/profile", s.handleProfile)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Error: message})
}

type linkWalletRequest struct {
	WalletAddress string  `json:"wallet_address"`
	Email         *string `json:"email,omitempty"`
}

type linkWalletResponse struct {
	Message       string    `json:"message"`
	CreatorID     string    `json:"creator_id"`
	Username      string    `json:"username"`
	WalletAddress string    `json:"wallet_address"`
	Email         string    `json:"email,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	ProfileImage  string    `json:"profile_image,omitempty"`
	SessionToken  string    `json:"session_token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (s *Server) handleLinkWallet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil || len(body) > maxBodyBytes {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var req linkWalletRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	wallet, err := canonicalWallet(req.WalletAddress)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	ctx := r.Context()
	profile, err := s.store.ProfileByWallet(ctx, wallet)
	switch {
	case err == nil:
		s.respondWithSession(w, http.StatusOK, "Wallet login successful", profile, true)
		return
	case !errors.Is(err, ErrProfileNotFound):
		s.logger.Error("profile lookup failed", slog.Any("error", err))
		writeFailure(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	if req.Email == nil || strings.TrimSpace(*req.Email) == "" {
		writeFailure(w, http.StatusBadRequest, msgEmailRequired)
		return
	}
	email, err := normalizeEmail(*req.Email)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	taken, err := s.store.EmailTaken(ctx, email)
	if err != nil {
		s.logger.Error("email lookup failed", slog.Any("error", err))
		writeFailure(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	if taken {
		writeFailure(w, http.StatusConflict, "email already linked to another wallet")
		return
	}
	profile, err = s.store.CreateProfile(ctx, wallet, email)
	if err != nil {
		s.logger.Error("profile creation failed", slog.String("email", logging.RedactEmail(email)), slog.Any("error", err))
		writeFailure(w, http.StatusInternalServerError, "profile creation failed")
		return
	}
	s.logger.Info("creator onboarded",
		slog.String("wallet", wallet),
		slog.String("username", profile.Username),
		slog.String("email", logging.RedactEmail(email)))
	s.respondWithSession(w, http.StatusCreated, "New creator registered successfully", profile, false)
}

func (s *Server) respondWithSession(w http.ResponseWriter, status int, message string, profile *Profile, full bool) {
	token, expires, err := s.sessions.Issue(profile)
	if err != nil {
		s.logger.Error("session issue failed", slog.Any("error", err))
		writeFailure(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	resp := linkWalletResponse{
		Message:       message,
		CreatorID:     profile.ID.String(),
		Username:      profile.Username,
		WalletAddress: profile.WalletAddress,
		SessionToken:  token,
		ExpiresAt:     expires,
	}
	if full {
		resp.Email = profile.Email
		resp.Bio = profile.Bio
		resp.ProfileImage = profile.ProfileImage
	}
	writeSuccess(w, status, resp)
}

func (s *Server) handleNativePrice(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]float64{"usd": s.prices.NativeUSD(r.Context())})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		writeFailure(w, http.StatusUnauthorized, "bearer session token required")
		return
	}
	id, claims, err := s.sessions.Verify(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, err.Error())
		return
	}
	profile, err := s.store.ProfileByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			writeFailure(w, http.StatusNotFound, err.Error())
			return
		}
		writeFailure(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	if profile.WalletAddress != claims.Wallet {
		writeFailure(w, http.StatusUnauthorized, errInvalidSession.Error())
		return
	}
	writeSuccess(w, http.StatusOK, profile)
}

// normalizeEmail trims, lower-cases and NFC-normalises email.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", errors.New("email required")
	}
	normalized := norm.NFC.String(strings.ToLower(trimmed))
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", fmt.Errorf("invalid email: %s", normalized)
	}
	return normalized, nil
}

// canonicalWallet parses raw and re-encodes it so every accepted spelling of
// an address maps to the same stored key.
func canonicalWallet(raw string) (string, error) {
	addr, err := crypto.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return crypto.FormatAddress(addr), nil
}

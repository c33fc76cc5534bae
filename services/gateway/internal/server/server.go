package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fitpro/internal/ratelimit"
	"fitpro/internal/usertoken"
	"fitpro/internal/util"
	"fitpro/services/gateway/internal/upstream"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	Upstream                *upstream.Client
	TokenVerifier           *usertoken.Verifier
	RedisAddr               string
	RedisPassword           string
	LoginRateLimitPerMinute int
	TrustedProxyCIDRs       []string
}

// Server is the same-origin proxy in front of the fitness API. It relays
// JSON payloads untouched and translates every failure into a uniform
// {"error": msg} body for the dashboard.
type Server struct {
	upstream      *upstream.Client
	tokenVerifier *usertoken.Verifier
	mux           *http.ServeMux
	loginLimiter  *ratelimit.FixedWindowLimiter
	trusted       *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}
	loginLimiter, err := ratelimit.NewRedisFixedWindowLimiter(
		cfg.RedisAddr, cfg.RedisPassword, "fitpro:gateway:ratelimit:login", loginLimit, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("init login limiter: %w", err)
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxy cidrs: %w", err)
	}
	s := &Server{
		upstream:      cfg.Upstream,
		tokenVerifier: cfg.TokenVerifier,
		mux:           http.NewServeMux(),
		loginLimiter:  loginLimiter,
		trusted:       trusted,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("gateway", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/api/auth/login", s.handleLogin)

	s.mux.HandleFunc("/api/categories", s.handleCategories)
	s.mux.HandleFunc("/api/exercises", s.handleExercises)
	s.mux.HandleFunc("/api/exercises/", s.handleExerciseByPath)
	s.mux.HandleFunc("/api/foods", s.handleFoods)
	s.mux.HandleFunc("/api/foods/", s.handleFoodByID)
	s.mux.HandleFunc("/api/drinks", s.handleDrinks)
	s.mux.HandleFunc("/api/drinks/", s.handleDrinkByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "gateway.login", "rate_limited")
		return
	}
	body, ok := readJSONBody(w, r)
	if !ok {
		s.audit(r, "gateway.login", "fail", "reason", "invalid_json")
		return
	}
	raw, status, err := s.upstream.Login(body)
	if err != nil {
		s.audit(r, "gateway.login", "fail", "reason", err.Error())
		writeUpstreamError(w, err)
		return
	}
	s.audit(r, "gateway.login", "success")
	writeRaw(w, status, raw)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.relay(w)(s.upstream.ListCategories())
	case http.MethodPost:
		token, ok := s.requireToken(w, r)
		if !ok {
			return
		}
		body, ok := readJSONBody(w, r)
		if !ok {
			return
		}
		s.relay(w)(s.upstream.AddCategory(token, body))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		categoryID := strings.TrimSpace(r.URL.Query().Get("categoryId"))
		if categoryID == "" {
			writeError(w, http.StatusBadRequest, "categoryId is required")
			return
		}
		s.relay(w)(s.upstream.ListExercises(categoryID))
	case http.MethodPost:
		token, ok := s.requireToken(w, r)
		if !ok {
			return
		}
		body, ok := readJSONBody(w, r)
		if !ok {
			return
		}
		body, err := prepareExercisePayload(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.relay(w)(s.upstream.AddExercise(token, body))
	default:
		methodNotAllowed(w)
	}
}

// /api/exercises/{categoryId} for GET, /api/exercises/{id} for PUT.
func (s *Server) handleExerciseByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/exercises/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.relay(w)(s.upstream.ListExercises(id))
	case http.MethodPut:
		token, ok := s.requireToken(w, r)
		if !ok {
			return
		}
		body, ok := readJSONBody(w, r)
		if !ok {
			return
		}
		s.relay(w)(s.upstream.UpdateExercise(token, id, body))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFoods(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.relay(w)(s.upstream.ListFoods())
	case http.MethodPost:
		token, ok := s.requireToken(w, r)
		if !ok {
			return
		}
		body, ok := readJSONBody(w, r)
		if !ok {
			return
		}
		s.relay(w)(s.upstream.AddFood(token, body))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFoodByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/foods/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	token, ok := s.requireToken(w, r)
	if !ok {
		return
	}
	body, ok := readJSONBody(w, r)
	if !ok {
		return
	}
	s.relay(w)(s.upstream.UpdateFood(token, id, body))
}

func (s *Server) handleDrinks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.relay(w)(s.upstream.ListDrinks())
	case http.MethodPost:
		token, ok := s.requireToken(w, r)
		if !ok {
			return
		}
		body, ok := readJSONBody(w, r)
		if !ok {
			return
		}
		s.relay(w)(s.upstream.AddDrink(token, body))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleDrinkByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/drinks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	token, ok := s.requireToken(w, r)
	if !ok {
		return
	}
	body, ok := readJSONBody(w, r)
	if !ok {
		return
	}
	s.relay(w)(s.upstream.UpdateDrink(token, id, body))
}

// requireToken enforces the bearer requirement on write routes before any
// upstream call. Reads never pass through here; the upstream accepts them
// anonymously.
func (s *Server) requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := bearerToken(r)
	if !ok {
		s.audit(r, "gateway.token.verify", "fail", "reason", "missing_token")
		writeError(w, http.StatusUnauthorized, "Authorization token is required")
		return "", false
	}
	if s.tokenVerifier != nil {
		if _, err := s.tokenVerifier.VerifySubject(token); err != nil {
			s.audit(r, "gateway.token.verify", "fail", "reason", "invalid_signature_or_claims")
			writeError(w, http.StatusUnauthorized, "Invalid authorization token")
			return "", false
		}
	}
	return token, true
}

// prepareExercisePayload enforces categoryId and assigns the numeric
// secondary id the dashboard expects when the caller omitted one.
func prepareExercisePayload(body json.RawMessage) (json.RawMessage, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body")
	}
	categoryID, _ := payload["categoryId"].(string)
	if strings.TrimSpace(categoryID) == "" {
		return nil, fmt.Errorf("categoryId is required")
	}
	if _, ok := payload["id"]; !ok {
		payload["id"] = time.Now().UnixMilli()
	}
	return json.Marshal(payload)
}

func (s *Server) relay(w http.ResponseWriter) func(json.RawMessage, int, error) {
	return func(raw json.RawMessage, status int, err error) {
		if err != nil {
			writeUpstreamError(w, err)
			return
		}
		writeRaw(w, status, raw)
	}
}

func readJSONBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || !json.Valid(raw) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return raw, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// All failures leave the gateway as {"error": msg}; the dashboard client
// never sees the upstream's envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*upstream.APIError); ok {
		writeError(w, apiErr.Status, apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, "fitness API unavailable")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trusted),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + util.ClientIP(r, s.trusted)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vamo-hq/ledgerx/app/ledger/types"
	"github.com/vamo-hq/ledgerx/pkg/utils"
)

type Controller struct {
	App        *types.App
	AdminToken string
	AdminUser  string
	AdminHash  []byte
	JWTSecret  []byte
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	adminToken := utils.Env("ADMIN_TOKEN", "devtoken")
	adminUser := utils.Env("ADMIN_USER", "admin")
	adminPass := utils.Env("ADMIN_PASSWORD", "admin")
	jwtSecret := []byte(utils.Env("SESSION_SECRET", "change-me-please"))

	phash, _ := utils.HashOrRead(adminPass)

	return &Controller{
		App:        app,
		AdminToken: adminToken,
		AdminUser:  adminUser,
		AdminHash:  phash,
		JWTSecret:  jwtSecret,
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Development: Echo back the origin to allow credentials with any origin
		// TODO: Restrict this in production to specific domains
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodPut+", "+http.MethodPatch+", "+http.MethodDelete+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	// basically it's ok, could even be a public endpoint
	r.Handle("/api/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	// Login/Logout (session issued here, identity itself lives upstream)
	r.HandleFunc("/api/auth/login", c.HandleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", c.HandleLogout).Methods(http.MethodPost)

	// Reward engine
	r.Handle("/api/rewards", c.RequireAuth(http.HandlerFunc(c.HandleCredit))).Methods(http.MethodPost)
	r.Handle("/api/redeem", c.RequireAuth(http.HandlerFunc(c.HandleRedeem))).Methods(http.MethodPost)
	r.Handle("/api/links", c.RequireAuth(http.HandlerFunc(c.HandleSubmitLink))).Methods(http.MethodPost)
	r.Handle("/api/chat/turn", c.RequireAuth(http.HandlerFunc(c.HandleChatTurn))).Methods(http.MethodPost)

	// Wallet
	r.Handle("/api/wallet/balance", c.RequireAuth(http.HandlerFunc(c.HandleWalletBalance))).Methods(http.MethodGet)
	r.Handle("/api/wallet/ledger", c.RequireAuth(http.HandlerFunc(c.HandleWalletLedger))).Methods(http.MethodGet)
	r.Handle("/api/wallet/redemptions", c.RequireAuth(http.HandlerFunc(c.HandleWalletRedemptions))).Methods(http.MethodGet)

	// Projects
	r.Handle("/api/projects/{id}/state", c.RequireAuth(http.HandlerFunc(c.HandleProjectState))).Methods(http.MethodGet)
	r.Handle("/api/projects/{id}/traction", c.RequireAuth(http.HandlerFunc(c.HandleProjectTraction))).Methods(http.MethodGet)

	// Admin fulfillment queue
	r.Handle("/api/admin/redemptions", c.RequireAdmin(http.HandlerFunc(c.HandleListPendingRedemptions))).Methods(http.MethodGet)
	r.Handle("/api/admin/redemptions", c.RequireAdmin(http.HandlerFunc(c.HandleResolveRedemption))).Methods(http.MethodPatch)

	// WebSocket endpoint for real-time activity events
	r.HandleFunc("/api/ws", c.HandleWebSocket).Methods(http.MethodGet)

	return r, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

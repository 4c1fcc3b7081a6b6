package auth

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/cardledger/cardledger/internal/domain/user"
)

const providerGoogle = "google"

// OAuthConfig carries the Google OAuth client settings.
type OAuthConfig struct {
	ClientID      string
	ClientSecret  string
	CallbackURL   string
	SessionSecret string
}

// OAuthHandler runs the Google login flow. On a completed callback it
// upserts the user and hands the browser a signed API token.
type OAuthHandler struct {
	users  user.Store
	tokens *TokenManager
	logger *slog.Logger
}

// NewOAuthHandler registers the Google provider and returns the handler.
// Call it once at startup; gothic keeps provider state globally.
func NewOAuthHandler(cfg OAuthConfig, users user.Store, tokens *TokenManager, logger *slog.Logger) *OAuthHandler {
	gothic.Store = sessions.NewCookieStore([]byte(cfg.SessionSecret))
	goth.UseProviders(
		google.New(cfg.ClientID, cfg.ClientSecret, cfg.CallbackURL, "email", "profile"),
	)
	return &OAuthHandler{users: users, tokens: tokens, logger: logger}
}

// Begin redirects the browser to Google's consent screen.
func (h *OAuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, providerGoogle))
}

// Callback completes the OAuth exchange, upserts the account by email and
// redirects to the front end with a fresh token.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, providerGoogle)

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "oauth callback failed", slog.Any("error", err))
		http.Redirect(w, r, "/login?error=oauth", http.StatusTemporaryRedirect)
		return
	}

	u, err := h.users.UpsertByEmail(r.Context(), gothUser.Email, gothUser.Name, providerGoogle)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "user upsert failed", slog.Any("error", err))
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.Issue(u.Email)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token issue failed", slog.Any("error", err))
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(r.Context(), "user logged in", slog.String("email", u.Email))
	http.Redirect(w, r, "/login/success?token="+url.QueryEscape(token), http.StatusTemporaryRedirect)
}

// Logout drops the gothic session and sends the browser home.
func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := gothic.Logout(w, gothic.GetContextWithProvider(r, providerGoogle)); err != nil {
		h.logger.WarnContext(r.Context(), "logout failed", slog.Any("error", err))
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

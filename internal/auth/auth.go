package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"
	"golang.org/x/oauth2"

	"onboarding-platform/backend/internal/config"
	"onboarding-platform/backend/internal/repository"
	"onboarding-platform/backend/pkg/models"
)

const (
	stateCookie   = "oauthstate"
	sessionCookie = "id_token"
	devEmail      = "dev@localhost"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Auth contains configuration and helpers for performing OpenID Connect
// authentication with an Okta tenant.
type Auth struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	apiVerifier  *oidc.IDTokenVerifier
	tenants      repository.TenantStore
	logger       Logger
	devMode      bool
	authBypass   bool
	secure       bool
}

// New creates a new Auth object using values from the application
// configuration. It establishes a connection to the provider and prepares an
// ID token verifier.
func New(ctx context.Context, cfg *config.Config, tenants repository.TenantStore, logger Logger) (*Auth, error) {
	isDev := cfg.IsDev()
	shouldBypass := isDev && cfg.DevModeBypass

	a := &Auth{
		tenants:    tenants,
		logger:     logger,
		devMode:    isDev,
		authBypass: shouldBypass,
		secure:     cfg.TLS.Enable,
	}
	if shouldBypass {
		a.logDebug("auth bypass enabled", "email", devEmail)
		return a, nil
	}

	if cfg.Auth.OktaDomain == "" || cfg.Auth.ClientID == "" ||
		cfg.Auth.ClientSecret == "" || cfg.Auth.RedirectURL == "" {
		return nil, errors.New("auth configuration is incomplete")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Auth.OktaDomain)
	if err != nil {
		return nil, err
	}

	a.oauth2Config = &oauth2.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.Auth.RedirectURL,
		Scopes:       LoginScopes,
	}
	a.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.Auth.ClientID})
	// Access tokens carry the API audience rather than the client id.
	a.apiVerifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})

	return a, nil
}

// LoginHandler initiates the OAuth2 authorization code flow by redirecting the
// user to the Okta authorization endpoint. A random state value is stored in a
// cookie to mitigate CSRF attacks.
func (a *Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		HttpOnly: true,
		Path:     "/",
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler handles the redirect back from Okta. It verifies the state
// parameter, exchanges the code for tokens, validates the ID token, and sets a
// session cookie containing the raw ID token.
func (a *Auth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || r.URL.Query().Get("state") != cookie.Value {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	token, err := a.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		a.logError("token exchange failed", "error", err)
		http.Error(w, "token exchange failed", http.StatusInternalServerError)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "no id_token in token response", http.StatusInternalServerError)
		return
	}

	if _, err := a.verifier.Verify(r.Context(), rawIDToken); err != nil {
		http.Error(w, "failed to verify id token", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    rawIDToken,
		HttpOnly: true,
		Path:     "/",
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RequireAuth is middleware that ensures a valid bearer token or ID token
// cookie is present and stores the caller's tenant in the request context.
// Browsers without a session are redirected to the login page, API clients
// receive 401.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := devEmail
		if !a.authBypass {
			token, status, err := a.verify(r)
			if err != nil {
				if status == http.StatusSeeOther {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				http.Error(w, err.Error(), status)
				return
			}

			var claims struct {
				Email string `json:"email"`
			}
			if err := token.Claims(&claims); err != nil {
				http.Error(w, "failed to parse token claims", http.StatusUnauthorized)
				return
			}
			email = claims.Email
		}

		domain, ok := emailDomain(email)
		if !ok {
			http.Error(w, "invalid email format in token", http.StatusUnauthorized)
			return
		}

		tenant, err := a.resolveTenant(r.Context(), domain)
		if err != nil {
			http.Error(w, "failed to resolve tenant: "+err.Error(), http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant.ID)))
	})
}

// LogoutHandler clears the session cookie and redirects to the home page.
func (a *Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// verify checks the bearer header first, then the session cookie. The returned
// status is the response to send when verification fails.
func (a *Auth) verify(r *http.Request) (*oidc.IDToken, int, error) {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token, err := a.apiVerifier.Verify(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return nil, http.StatusUnauthorized, errors.New("invalid token: " + err.Error())
		}
		return token, http.StatusOK, nil
	}

	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		if wantsHTML(r) {
			return nil, http.StatusSeeOther, err
		}
		return nil, http.StatusUnauthorized, errors.New("authentication required")
	}
	token, err := a.verifier.Verify(r.Context(), cookie.Value)
	if err != nil {
		return nil, http.StatusUnauthorized, errors.New("invalid token: " + err.Error())
	}
	return token, http.StatusOK, nil
}

// resolveTenant looks the tenant up by domain and provisions it on first use.
func (a *Auth) resolveTenant(ctx context.Context, domain string) (*models.Tenant, error) {
	tenant, err := a.tenants.GetTenantByDomain(ctx, domain)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		a.logError("tenant lookup failed", "domain", domain, "error", err)
		return nil, err
	}

	tenant = &models.Tenant{Name: domain, Domain: domain}
	if err := a.tenants.CreateTenant(ctx, tenant); err != nil {
		a.logError("failed to provision tenant", "domain", domain, "error", err)
		return nil, err
	}
	if a.logger != nil {
		a.logger.Info("tenant provisioned", "domain", domain, "tenant_id", tenant.ID)
	}
	return tenant, nil
}

func (a *Auth) logError(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Error(msg, args...)
	}
}

func (a *Auth) logDebug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func emailDomain(email string) (string, bool) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return strings.ToLower(parts[1]), true
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

package auth

const (
	ScopeOpenID  = "openid"
	ScopeProfile = "profile"
	ScopeEmail   = "email"
)

// LoginScopes are requested by the browser login flow.
var LoginScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail}

// AllScopes is requested by the Swagger UI and API clients. RequireAuth
// verifies ID tokens and tenants by email domain, so only identity scopes
// are asked for.
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
}

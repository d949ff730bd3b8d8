package token

// Storage keys for the two credentials. Nothing else is persisted by the console.
const (
	AccessTokenKey  = "eduAccessToken"
	RefreshTokenKey = "eduRefreshToken"
)

package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

var (
	// appJWTConfig is the default JWT auth middleware config. ConfigureAuth
	// must be called before use.
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "staffToken",
		Claims:        new(Claims),
	}
	jwtIssuer          string
	jwtExpirationDelta time.Duration
)

// Claims represents the authorization claims transmitted via a JWT. Tokens
// are minted for jury staff by the admin CLI; there are no self-service
// accounts.
type Claims struct {
	jwt.StandardClaims
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"` // may manage students and undo decisions
}

// ConfigureAuth sets up the JWT auth parameters and returns the auth
// middleware.
func ConfigureAuth(appName string, secretKey []byte, expirationDelta time.Duration) echo.MiddlewareFunc {
	appJWTConfig.SigningKey = secretKey
	jwtIssuer = appName
	jwtExpirationDelta = expirationDelta
	return middleware.JWTWithConfig(appJWTConfig)
}

// GetStaffClaims builds the claims of a staff token.
func GetStaffClaims(name string, isAdmin bool) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    jwtIssuer,
			Subject:   name,
			Audience:  "Jury",
			ExpiresAt: now.Add(jwtExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:    name,
		IsAdmin: isAdmin,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/eduNEXT/extemporaneous-grading/core"
	"github.com/eduNEXT/extemporaneous-grading/core/grading"
)

const claimsContextKey = "userToken"

// Claims represents the viewer identity transmitted via a host-signed JWT.
// The host platform mints these tokens; this API only verifies them.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	IsStaff  bool     `json:"is_staff,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Student maps the claims onto the domain's viewer identity.
// Subject carries the host's opaque anonymous user id.
func (c Claims) Student() grading.Student {
	return grading.Student{
		ID:       c.Subject,
		Username: c.Username,
		Email:    c.Email,
		IsStaff:  c.IsStaff,
		Roles:    c.Roles,
	}
}

func newAppJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    claimsContextKey,
		Claims:        new(Claims),
	}
}

// GetViewerClaims builds the claims the host would mint for a viewer.
// Also used by tests to authenticate requests.
func GetViewerClaims(viewer grading.Student, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   viewer.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: viewer.Username,
		Email:    viewer.Email,
		IsStaff:  viewer.IsStaff,
		Roles:    viewer.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the viewer Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(claimsContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextStudent(ctx echo.Context) (grading.Student, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return grading.Student{}, err
	}
	return claims.Student(), nil
}

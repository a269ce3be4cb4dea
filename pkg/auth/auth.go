package auth

import (
	"context"
	"os"

	"github.com/golang-jwt/jwt/v4"
)

const (
	XUserNameHeader = "X-User-Name"
	XUserRoleHeader = "X-User-Role"
)

const (
	RoleAdmin     = "ADMIN"
	RoleLibrarian = "LIBRARIAN"
	RoleReader    = "READER"
)

// JWTKey signs access tokens. Overridable via JWT_KEY.
var JWTKey = []byte(jwtKey())

func jwtKey() string {
	if k := os.Getenv("JWT_KEY"); k != "" {
		return k
	}
	return "secret_jwt_key"
}

type Claims struct {
	Profile struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"profile"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type contextKey int

const (
	ctxKeyUserName contextKey = iota + 1
	ctxKeyRole
	ctxKeyToken
)

func SetAuthContext(ctx context.Context, username, role string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserName, username)
	return context.WithValue(ctx, ctxKeyRole, role)
}

func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

func UserName(ctx context.Context) string {
	name, _ := ctx.Value(ctxKeyUserName).(string)
	return name
}

func Role(ctx context.Context) string {
	role, _ := ctx.Value(ctxKeyRole).(string)
	return role
}

func Token(ctx context.Context) string {
	token, _ := ctx.Value(ctxKeyToken).(string)
	return token
}

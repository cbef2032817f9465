package middleware

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/api/transport"
	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/pkg/httpcontext"
)

// Middleware wraps a fasthttp handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

var errMissingSubject = errors.New("token carries no user_id or sub claim")

// JWTAuth identifies the caller from an HS256 bearer token issued elsewhere.
// The user id is read from the user_id claim, falling back to sub.
func JWTAuth(secret, issuer string, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(secret)
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			userID, err := parseUserID(tokenString, key, issuer)
			if err != nil {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}

			ctx.SetUserValue(httpcontext.UserValueUserID, userID)
			next(ctx)
		}
	}
}

// HeaderIdentity trusts the X-User-ID header. It is meant for local runs without JWT_SECRET.
func HeaderIdentity() Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			userID := strings.TrimSpace(string(ctx.Request.Header.Peek("X-User-ID")))
			if userID == "" {
				unauthorized(ctx, "missing user id")
				return
			}
			ctx.SetUserValue(httpcontext.UserValueUserID, userID)
			next(ctx)
		}
	}
}

func parseUserID(tokenString string, key []byte, issuer string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method " + token.Method.Alg())
		}
		return key, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token is not valid")
	}
	if issuer != "" && !claims.VerifyIssuer(issuer, false) {
		return "", errors.New("unexpected issuer")
	}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID, nil
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", errMissingSubject
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBodyString(transport.NewError(domain.ErrCodeUnauthorized, message).String())
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}

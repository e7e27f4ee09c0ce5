package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTMiddleware requires a bearer token and keeps it in locals so handlers
// can forward it to the backend. When secret is set the token signature and
// expiry are checked here as well; otherwise the backend is the judge.
// Browsers cannot set headers on a websocket handshake, so an upgrade
// request may carry the token in the "token" query parameter instead.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" && strings.EqualFold(c.Get("Upgrade"), "websocket") {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		if len(secretBytes) > 0 {
			parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
				return secretBytes, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, err.Error())
			}

			claims, ok := parsed.Claims.(*Claims)
			if !ok || !parsed.Valid {
				return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
			}
			userID := claims.UserID
			if userID == "" {
				userID = claims.Subject
			}
			c.Locals("user_id", userID)
		}

		c.Locals("token", token)
		return c.Next()
	}
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

// Token returns the bearer token stored by JWTMiddleware.
func Token(c *fiber.Ctx) string {
	token, _ := c.Locals("token").(string)
	return token
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

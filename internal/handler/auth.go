package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jamesdwilson/byteball-merchant/internal/utils"
)

// AuthHandler issues operator API tokens.  There is a single operator
// identity whose password is stored as a bcrypt hash in configuration;
// a correct password yields a short-lived OPERATOR JWT.
type AuthHandler struct {
	jwtSecret string
	passHash  string
	ttlMin    int
}

// NewAuthHandler returns an AuthHandler bound to the configured secret,
// bcrypt password hash and token TTL.
func NewAuthHandler(jwtSecret, passHash string, ttlMin int) *AuthHandler {
	return &AuthHandler{jwtSecret: jwtSecret, passHash: passHash, ttlMin: ttlMin}
}

type tokenRequest struct {
	Password string `json:"password"`
}

// Token handles POST /v1/auth/token.  It verifies the operator password
// against the configured bcrypt hash and returns a signed access token.
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
	}
	if !utils.VerifyPassword(h.passHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid password"})
	}
	tok, err := utils.NewAccessToken(h.jwtSecret, "operator", "OPERATOR", h.ttlMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token signing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp,
	})
}

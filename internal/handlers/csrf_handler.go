package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Alex-T-Coder/lgcy-app/internal/httpx"
	"github.com/gofiber/fiber/v2"
)

// IssueCSRF mints the double-submit token: the client stores the cookie
// and echoes the same value in the X-LGCY-CSRF header on mutating calls.
func IssueCSRF(c *fiber.Ctx) error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return httpx.Internal(c, "csrf_generation_failed")
	}
	token := hex.EncodeToString(buf)

	c.Cookie(&fiber.Cookie{
		Name:     "lgcy_csrf",
		Value:    token,
		Expires:  time.Now().Add(12 * time.Hour),
		Secure:   true,
		SameSite: "Lax",
		// Not HttpOnly: the browser client reads it to set the header.
		Path: "/",
	})

	return c.JSON(fiber.Map{"csrf": token})
}

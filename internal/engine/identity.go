package engine

import "github.com/gofiber/fiber/v2"

const identityKey = "identity"

// SetIdentity records the authenticated username on the request so the
// write handlers can attribute changes in the audit log.
func SetIdentity(c *fiber.Ctx, username string) {
	c.Locals(identityKey, username)
}

// Identity returns the username set by SetIdentity, or "" on
// unauthenticated requests.
func Identity(c *fiber.Ctx) string {
	username, _ := c.Locals(identityKey).(string)
	return username
}

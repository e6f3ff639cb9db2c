package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gitlab.com/yelinaung/expense-approval/internal/approval"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
	"gitlab.com/yelinaung/expense-approval/internal/models"
)

const actorKey = "actor"

// Claims are the identity claims issued by the authentication service.
// The subject is the user id.
type Claims struct {
	Company string `json:"company"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into a workflow actor.
func (c *Claims) Actor() (approval.Actor, bool) {
	id, err := uuid.Parse(c.Subject)
	if err != nil || id == uuid.Nil {
		return approval.Actor{}, false
	}
	company, err := uuid.Parse(c.Company)
	if err != nil || company == uuid.Nil {
		return approval.Actor{}, false
	}
	role := models.Role(c.Role)
	if !role.Valid() {
		return approval.Actor{}, false
	}
	return approval.Actor{ID: id, CompanyID: company, Role: role}, true
}

// authMiddleware verifies the HS256 bearer token and stores the actor.
func authMiddleware(secret []byte) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization token required",
			})
		}

		claims := &Claims{}
		_, err := parser.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil {
			logger.Log.Debug().Err(err).Msg("Rejected bearer token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		actor, ok := claims.Actor()
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// actorFrom returns the actor stored by authMiddleware.
func actorFrom(c *fiber.Ctx) approval.Actor {
	actor, _ := c.Locals(actorKey).(approval.Actor)
	return actor
}

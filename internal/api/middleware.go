package api

import (
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/katakuxiko/deenbot/internal/auth"
)

const (
	localUserID   = "user_id"
	anonymousUser = "anonymous"
)

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
		)
		return err
	}
}

// corsConfig allows credentials for every listed origin. A "*" entry makes
// every origin allowed by reflecting it back, since fiber rejects a literal
// wildcard together with credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodHead,
			fiber.MethodPut,
			fiber.MethodDelete,
			fiber.MethodPatch,
			fiber.MethodOptions,
		}, ","),
		// empty reflects Access-Control-Request-Headers
		AllowHeaders:     "",
		AllowCredentials: true,
		ExposeHeaders:    "Content-Type,X-Requested-With,Accept,Authorization,Origin",
	}

	explicit := make([]string, 0, len(origins))
	wildcard := false
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			explicit = append(explicit, o)
		}
	}

	if len(explicit) == 0 {
		cfg.AllowOrigins = "*"
		cfg.AllowCredentials = false
		return cfg
	}

	cfg.AllowOrigins = strings.Join(explicit, ",")
	if wildcard {
		cfg.AllowOriginsFunc = func(string) bool { return true }
	}
	return cfg
}

// utf8JSON labels buffered JSON responses as UTF-8 so clients decode Arabic
// text correctly. Streamed bodies and other content types pass through.
func utf8JSON(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		resp := c.Response()
		if resp.IsBodyStream() {
			return err
		}
		body := resp.Body()
		if len(body) == 0 {
			return err
		}
		if !strings.HasPrefix(string(resp.Header.ContentType()), fiber.MIMEApplicationJSON) {
			return err
		}
		if !utf8.Valid(body) {
			logger.Error("encoding middleware error: response body is not valid UTF-8", "path", c.Path())
			return err
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return err
	}
}

// identify stores the caller's id in c.Locals. A valid bearer token yields
// its subject; otherwise the caller is anonymous, or rejected when required.
func identify(secret string, required bool, logger *slog.Logger) fiber.Handler {
	if secret == "" {
		logger.Warn("auth.jwt_secret is not set, chat callers are anonymous", "required", required)
		return func(c *fiber.Ctx) error {
			if required {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "valid bearer token required"})
			}
			c.Locals(localUserID, anonymousUser)
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		userID, err := subject(secret, c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if required {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "valid bearer token required"})
			}
			if !errors.Is(err, auth.ErrMissingToken) {
				logger.Warn("ignoring invalid bearer token", "error", err)
			}
			userID = anonymousUser
		}

		c.Locals(localUserID, userID)
		return c.Next()
	}
}

func subject(secret, header string) (string, error) {
	token, err := auth.BearerToken(header)
	if err != nil {
		return "", err
	}
	claims, err := auth.Parse(secret, token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", auth.ErrMissingToken
	}
	return claims.Subject, nil
}

func userID(c *fiber.Ctx) string {
	if id, ok := c.Locals(localUserID).(string); ok && id != "" {
		return id
	}
	return anonymousUser
}

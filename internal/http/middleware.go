package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/metrics"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/service"
)

const userKey = "user"

// ErrorHandler maps domain errors to status codes. Anything unrecognised is
// logged and reported as a bare 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	status := fiber.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.As(err, &fe):
		status, msg = fe.Code, fe.Message
	case errors.Is(err, domain.ErrUnauthenticated):
		status, msg = fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrConflict):
		status, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = fiber.StatusBadRequest, err.Error()
	default:
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// requestLogger resolves the chain's error itself so the logged status and
// the metrics match what the client receives.
func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	if chainErr := c.Next(); chainErr != nil {
		if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	elapsed := time.Since(start)
	status := c.Response().StatusCode()

	route := c.Path()
	if r := c.Route(); r != nil && r.Path != "/" {
		route = r.Path
	}
	metrics.ObserveRequest(c.Method(), route, strconv.Itoa(status), elapsed.Seconds())

	log.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", elapsed).
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Msg("request")
	return nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// requireUser resolves the bearer token before any handler logic runs.
func requireUser(sessions *service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fmt.Errorf("%w: missing or invalid Authorization header", domain.ErrUnauthenticated)
		}
		u, err := sessions.Resolve(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(userKey, u)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(userKey).(*domain.User)
	return u
}

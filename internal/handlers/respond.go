package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/logger"
)

const serverErrorText = "Server error"

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation error",
		"errors":  errs,
	})
}

// serverError logs err against the request id and answers with the opaque 500.
func serverError(c *fiber.Ctx, log *logrus.Logger, err error) error {
	log.WithError(err).WithFields(logrus.Fields{
		"request_id": logger.RequestID(c),
		"method":     c.Method(),
		"path":       c.Path(),
	}).Error("unhandled error")
	return c.Status(fiber.StatusInternalServerError).SendString(serverErrorText)
}

// ErrorHandler turns *fiber.Error values returned by middleware into JSON
// {message} bodies. Anything else is an unexpected failure.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fail(c, fe.Code, fe.Message)
		}
		return serverError(c, log, err)
	}
}

// paramUUID parses a path parameter; ok is false when it is not a UUID.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// isURL accepts absolute http(s) URLs and site-relative paths such as the
// /uploads/... paths returned by the local object store.
func isURL(s string) bool {
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return len(s) > 1
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validateURLs(errs FieldErrors, field string, urls []string, max int) {
	if len(urls) > max {
		errs.Add(field, "Too many entries")
	}
	for _, u := range urls {
		if !isURL(strings.TrimSpace(u)) {
			errs.Add(field, "Must contain valid URLs")
			return
		}
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

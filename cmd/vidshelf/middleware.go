package main

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// createLoggingMiddleware creates a middleware that logs each request after it was handled.
func createLoggingMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		// Errors are only turned into a response by the error handler after all middlewares returned
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}

		logger.Debug("Handled request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)))
		return err
	}
}

// createErrorHandler creates the app's error handler.
// Errors that reach it are either routing errors (like an unknown path) or unexpected.
// It responds with the same JSON shape that the handlers use for their errors.
func createErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			msg = fiberErr.Message
		} else {
			logger.Error("Unexpected error during request handling", zap.Error(err), zap.String("path", c.Path()))
		}
		return c.Status(code).JSON(errorResponse{
			Error: msg,
			Home:  "/",
		})
	}
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// NewApp creates the fiber application with the service error handler installed.
func NewApp(appName string, logger *zap.Logger) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return fiber.New(fiber.Config{
		AppName:               appName,
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})
}

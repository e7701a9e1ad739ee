//go:build lambda

// Command ingredex-lambda decodes posted wiki pages behind a Lambda
// function URL.
package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/sleepwiki/ingredex/internal/logger"
)

func main() {
	slog.SetDefault(logger.New(logger.Config{
		Format: logger.FormatJSON,
		Level:  logger.ParseLevel(os.Getenv("INGREDEX_LOG_LEVEL")),
	}))
	lambda.Start(handler)
}

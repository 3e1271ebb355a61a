//go:build lambda

package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/rsned/cultivation-server/internal/logging"
)

func main() {
	logging.Init(logging.Level(false), logging.FormatJSON)
	lambda.Start(handler)
}

package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"hello-world-aws/internal/render"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	h := NewHandler(render.New(), slog.Default())
	lambda.Start(h.Invoke)
}

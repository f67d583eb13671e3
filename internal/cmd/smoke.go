package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"hello-world-aws/internal/render"
)

type smokeCommand struct {
	cmd *cobra.Command
	fs  afero.Fs

	method    string
	sourceIP  string
	userAgent string
	outPath   string
}

func newSmokeCommand(fs afero.Fs) *smokeCommand {
	smokeCommand := &smokeCommand{fs: fs}
	smokeCommand.cmd = &cobra.Command{
		Use:   "smoke",
		Short: "Render the page for a sample Function URL request and print a summary",
		Args:  cobra.NoArgs,
		RunE:  smokeCommand.run,
	}

	smokeCommand.cmd.Flags().StringVar(&smokeCommand.method, "method", "GET", "HTTP method of the sample request")
	smokeCommand.cmd.Flags().StringVar(&smokeCommand.sourceIP, "source-ip", "127.0.0.1", "Source IP of the sample request")
	smokeCommand.cmd.Flags().StringVar(&smokeCommand.userAgent, "user-agent", "Test Browser", "User-Agent header of the sample request")
	smokeCommand.cmd.Flags().StringVar(&smokeCommand.outPath, "out", "", "Write the rendered HTML to this file")

	return smokeCommand
}

func (c *smokeCommand) run(cmd *cobra.Command, args []string) error {
	payload, err := json.Marshal(c.sampleRequest())
	if err != nil {
		return fmt.Errorf("encoding sample request: %w", err)
	}

	resp := render.New().Render(render.DecodeEnvelope(payload))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Status Code:", resp.StatusCode)
	fmt.Fprintln(out, "Content Type:", resp.Headers["Content-Type"])
	fmt.Fprintln(out, "Body length:", utf8.RuneCountInString(resp.Body))

	if c.outPath == "" {
		return nil
	}

	if err := afero.WriteFile(c.fs, c.outPath, []byte(resp.Body), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.outPath, err)
	}
	slog.Debug("Saved rendered page", "path", c.outPath)
	fmt.Fprintln(out, "HTML saved to:", c.outPath)

	return nil
}

func (c *smokeCommand) sampleRequest() events.LambdaFunctionURLRequest {
	return events.LambdaFunctionURLRequest{
		Version: "2.0",
		RawPath: "/",
		Headers: map[string]string{
			"user-agent": c.userAgent,
		},
		RequestContext: events.LambdaFunctionURLRequestContext{
			HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{
				Method:    c.method,
				Path:      "/",
				SourceIP:  c.sourceIP,
				UserAgent: c.userAgent,
			},
		},
	}
}

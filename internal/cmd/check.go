package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	defaultCheckTimeout = 30 * time.Second
	previewLength       = 200
)

type checkCommand struct {
	cmd *cobra.Command
	fs  afero.Fs

	timeout time.Duration
	outPath string
}

func newCheckCommand(fs afero.Fs) *checkCommand {
	checkCommand := &checkCommand{fs: fs}
	checkCommand.cmd = &cobra.Command{
		Use:   "check <url>",
		Short: "Fetch a deployed Function URL and print a summary of the response",
		Args:  cobra.ExactArgs(1),
		RunE:  checkCommand.run,
	}

	checkCommand.cmd.Flags().DurationVar(&checkCommand.timeout, "timeout", defaultCheckTimeout, "Give up on the request after this long")
	checkCommand.cmd.Flags().StringVar(&checkCommand.outPath, "out", "", "Write the full response body to this file")

	return checkCommand
}

func (c *checkCommand) run(cmd *cobra.Command, args []string) error {
	url := args[0]
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "URL:", url)

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}

	client := &http.Client{Timeout: c.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", url, err)
	}
	text := string(body)

	fmt.Fprintln(out, "Status Code:", resp.StatusCode)
	fmt.Fprintln(out, "Content Type:", resp.Header.Get("Content-Type"))
	fmt.Fprintf(out, "Response length: %d characters\n", utf8.RuneCountInString(text))

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintln(out, "Response:", text)
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	fmt.Fprintln(out, "Response preview:")
	fmt.Fprintln(out, preview(text, previewLength))

	if c.outPath == "" {
		return nil
	}

	if err := afero.WriteFile(c.fs, c.outPath, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.outPath, err)
	}
	slog.Debug("Saved response", "path", c.outPath)
	fmt.Fprintln(out, "Full response saved to:", c.outPath)

	return nil
}

// preview returns the first n characters of s, marked with "..." when cut.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

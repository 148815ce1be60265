package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/kabuka/internal/app"
	"github.com/ternarybob/kabuka/internal/common"
)

// runLookup resolves event dates for the given codes and writes them as one JSON object keyed by code.
// Arguments may be comma separated. Codes found in text follow the explicit ones.
// An empty mode uses the configured default.
func runLookup(application *app.App, args []string, text string, mode string, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var codes []string
	for _, arg := range args {
		codes = append(codes, common.SplitCodes(arg)...)
	}
	if text != "" {
		codes = append(codes, common.ExtractCodes(text)...)
	}
	codes = common.NormalizeCodes(codes)
	if len(codes) == 0 {
		return fmt.Errorf("no ticker codes found in arguments or text")
	}

	application.Logger.Debug().
		Strs("codes", codes).
		Str("mode", mode).
		Msg("Fetching event dates")

	results := application.Events.FetchEventsInfoForCodes(ctx, codes, mode)

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// readCodesText returns the -text value, reading stdin when it is "-".
func readCodesText(value string, stdin io.Reader) (string, error) {
	if value != "-" {
		return value, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read standard input: %w", err)
	}
	return string(data), nil
}

package adapter

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultErrorMessage = "An error occurred during transcription"
	maxErrorBody        = 200
)

// apiErrorMessage logs the vendor detail and returns a short message that is
// safe to show the user.
func (b *base) apiErrorMessage(op string, err error) string {
	if err == nil {
		return defaultErrorMessage
	}

	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
	)
	switch {
	case errors.As(err, &apiErr):
		b.logger.Error().
			Str("op", op).
			Int("status", apiErr.HTTPStatusCode).
			Str("type", apiErr.Type).
			Str("message", apiErr.Message).
			Msg("vendor API error")
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.HTTPStatusCode)
		}
		return fmt.Sprintf("%s API error (%d): %s", b.provider.Name, apiErr.HTTPStatusCode, truncate(msg))

	case errors.As(err, &reqErr):
		body := strings.TrimSpace(string(reqErr.Body))
		b.logger.Error().
			Str("op", op).
			Int("status", reqErr.HTTPStatusCode).
			Str("body", body).
			Err(reqErr.Err).
			Msg("vendor request error")
		if body == "" {
			body = http.StatusText(reqErr.HTTPStatusCode)
		}
		return fmt.Sprintf("%s API error (%d): %s", b.provider.Name, reqErr.HTTPStatusCode, truncate(body))
	}

	b.logger.Error().Str("op", op).Err(err).Msg("vendor request failed")
	return fmt.Sprintf("%s request failed: %s", b.provider.Name, truncate(err.Error()))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxErrorBody {
		return s
	}
	return string(r[:maxErrorBody]) + "…"
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/trampoja/app-onboarding/internal/models"
)

// maxExternalBody caps how much of an upstream response is read
const maxExternalBody = 1 << 20

// classifyTransportError maps a failed HTTP round trip to the upstream errors
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", models.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
}

// externalStatus is the metric label of an external call outcome
func externalStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, models.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, models.ErrCNPJNotFound), errors.Is(err, models.ErrAddressNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// getJSON performs a GET and decodes a 200 response into out.
// Other status codes are returned as statusError.
func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxExternalBody))
		return &statusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxExternalBody)).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", models.ErrUpstreamUnavailable, err)
	}
	return nil
}

// statusError is a non-200 upstream response
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// Unwrap lets callers treat any bad status as an unavailable upstream
func (e *statusError) Unwrap() error { return models.ErrUpstreamUnavailable }

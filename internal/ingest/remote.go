package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"recall-insights-go/internal/logger"
)

const (
	fetchTimeout  = 15 * time.Second
	fetchMaxRetry = 2 * time.Minute
)

// FetchRemote downloads a dataset file with exponential-backoff retry.
// Used at startup when the call log is served from a URL instead of a
// local path. Client errors are permanent; everything else is retried
// until the backoff budget runs out.
func FetchRemote(ctx context.Context, url string) ([]byte, error) {
	log := logger.Component("ingest.fetch").WithField("url", url)

	var body []byte
	op := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.WithError(err).Warn("dataset fetch failed")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("dataset fetch: status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("dataset fetch: status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = fetchMaxRetry

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	log.WithField("bytes", len(body)).Info("dataset downloaded")
	return body, nil
}

package onboarding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	models "gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/domain/services"
	"gottadoit/internal/metrics"
)

// httpEffectRunner carries out api and db side effects over HTTP. Effects are
// best-effort: failures are logged and counted, never surfaced to the user
// whose button press triggered them.
type httpEffectRunner struct {
	client     *http.Client
	dbProxyURL string
	logger     *slog.Logger
}

// NewEffectRunner builds the default effect runner. dbProxyURL is the
// endpoint that executes registered database operations; when empty, db
// effects are dropped.
func NewEffectRunner(dbProxyURL string, logger *slog.Logger) services.EffectRunner {
	return &httpEffectRunner{
		client:     &http.Client{Timeout: 10 * time.Second},
		dbProxyURL: dbProxyURL,
		logger:     logger,
	}
}

func (r *httpEffectRunner) Run(ctx context.Context, effect *models.Effect) {
	if effect == nil {
		return
	}

	var err error
	switch effect.Type {
	case models.EffectAPI:
		err = r.runAPI(ctx, effect)
	case models.EffectDB:
		err = r.runDB(ctx, effect)
	case models.EffectDownload:
		// Downloads happen on the client; nothing to do server-side.
		return
	default:
		return
	}

	if err != nil {
		metrics.EffectFailures.WithLabelValues(string(effect.Type)).Inc()
		r.logger.Warn("effect failed",
			"effect_type", effect.Type,
			"error", err,
		)
	}
}

func (r *httpEffectRunner) runAPI(ctx context.Context, effect *models.Effect) error {
	method := effect.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, effect.URL, nil)
	if err != nil {
		return err
	}
	for k, v := range effect.Headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return &effectStatusError{status: resp.StatusCode}
	}
	return nil
}

func (r *httpEffectRunner) runDB(ctx context.Context, effect *models.Effect) error {
	if r.dbProxyURL == "" {
		r.logger.Debug("db effect dropped, no proxy configured", "db_type", effect.DBType)
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"dbType": effect.DBType,
		"query":  effect.Query,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.dbProxyURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return &effectStatusError{status: resp.StatusCode}
	}
	return nil
}

type effectStatusError struct {
	status int
}

func (e *effectStatusError) Error() string {
	return "effect endpoint returned " + http.StatusText(e.status)
}

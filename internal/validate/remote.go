package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/mediator/internal/model"
	"github.com/ppiankov/mediator/internal/util"
)

const defaultRemoteRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// errRetryable marks a remote failure worth another attempt
var errRetryable = errors.New("retryable")

// RemoteValidator posts candidate artifacts to an external semantic validator
type RemoteValidator struct {
	httpClient *http.Client
	url        string
	maxRetries int
}

// NewRemoteValidator creates a validator for cfg.URL
func NewRemoteValidator(cfg model.ValidatorConfig) (*RemoteValidator, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: remote validator requires validator.url", model.ErrInvalidInput)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultRemoteRetries
	}

	proxy, err := util.Proxy{HTTP: cfg.HTTPProxy, HTTPS: cfg.HTTPSProxy, NoProxy: cfg.NoProxy}.Func()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}

	return &RemoteValidator{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: proxy,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		url:        cfg.URL,
		maxRetries: maxRetries,
	}, nil
}

// Validate implements SemanticValidator, retrying transient failures with
// exponential backoff
func (v *RemoteValidator) Validate(ctx context.Context, candidate model.ArtifactCandidate) (model.SemanticVerdict, error) {
	body, err := json.Marshal(candidate)
	if err != nil {
		return model.SemanticVerdict{}, fmt.Errorf("encode candidate: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < v.maxRetries; attempt++ {
		verdict, err := v.validateOnce(ctx, body)
		if err == nil {
			return verdict, nil
		}
		lastErr = err
		if !errors.Is(err, errRetryable) || ctx.Err() != nil {
			break
		}
		if attempt < v.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return model.SemanticVerdict{}, lastErr
}

func (v *RemoteValidator) validateOnce(ctx context.Context, body []byte) (model.SemanticVerdict, error) {
	var verdict model.SemanticVerdict

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return verdict, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mediator/1.0 (+https://github.com/ppiankov/mediator)")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		if isRetryableNetworkError(err.Error()) {
			return verdict, fmt.Errorf("%w: request failed: %v", errRetryable, err)
		}
		return verdict, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if isRetryableStatus(resp.StatusCode) {
		return verdict, fmt.Errorf("%w: validator returned %d", errRetryable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return verdict, fmt.Errorf("validator returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return verdict, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, &verdict); err != nil {
		return verdict, fmt.Errorf("decode verdict: %w", err)
	}
	if verdict.Verdict == "" {
		return verdict, fmt.Errorf("decode verdict: missing verdict field")
	}
	if verdict.Schema == "" {
		verdict.Schema = SemanticSchema
	}
	return verdict, nil
}

// isRetryableStatus returns true for 5xx and 429 responses
func isRetryableStatus(code int) bool {
	return (code >= 500 && code < 600) || code == http.StatusTooManyRequests
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

// New selects a semantic validator from configuration
func New(cfg model.ValidatorConfig, rules *model.Rules) (SemanticValidator, error) {
	switch cfg.Mode {
	case "", "local":
		var checker OntologyChecker = NoConflictChecker{}
		if rules != nil && len(rules.Ontology) > 0 {
			checker = NewGraphChecker(rules.Ontology)
		}
		return NewLocalValidator(rules, checker), nil
	case "remote":
		v, err := NewRemoteValidator(cfg)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown validator mode %q", model.ErrInvalidInput, cfg.Mode)
	}
}

package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"portal-compare/internal/comparison/config"
	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/repository"
	"portal-compare/internal/shared/logger"
	"portal-compare/internal/shared/utils"

	"github.com/siderolabs/go-retry/retry"
	"github.com/sony/gobreaker"
)

// Config holds the HTTP and resilience settings of the client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int

	// RateLimitRetry is the total time spent retrying 429 responses. Zero
	// disables retries.
	RateLimitRetry time.Duration
	RetryUnit      time.Duration

	BreakerFailureRatio float64
	BreakerMinRequests  uint32
	BreakerOpenTimeout  time.Duration
}

// ConfigFrom extracts the client settings from the module configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		BaseURL:             cfg.HubSpotBaseURL,
		Timeout:             cfg.HubSpotTimeout,
		PageSize:            cfg.HubSpotPageSize,
		RateLimitRetry:      cfg.HubSpotRateLimitRetry,
		RetryUnit:           250 * time.Millisecond,
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerMinRequests:  cfg.BreakerMinRequests,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	}
}

// Client fetches portal metadata from the HubSpot CRM API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        logger.Logger
	metrics    repository.MetricsRecorder

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

var (
	_ repository.MetadataFetcher     = (*Client)(nil)
	_ repository.CredentialValidator = (*Client)(nil)
)

// NewClient creates a client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client, log logger.Logger, metrics repository.MetricsRecorder) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.RetryUnit <= 0 {
		cfg.RetryUnit = 250 * time.Millisecond
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log.WithComponent("hubspot-client"),
		metrics:    metrics,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

// ValidateCredential checks the token with the cheapest authenticated call.
func (c *Client) ValidateCredential(ctx context.Context, cred model.Credential) error {
	if cred.IsZero() {
		return fmt.Errorf("%w: empty access token", model.ErrUpstreamAuth)
	}
	var page propertiesPage
	return c.get(ctx, cred, "validate_credential", "/crm/v3/properties/contacts", url.Values{"limit": {"1"}}, &page)
}

// FetchProperties returns every property of objectType with its validation
// rules attached.
func (c *Client) FetchProperties(ctx context.Context, cred model.Credential, objectType string) ([]model.PropertyDefinition, error) {
	rules := c.fetchValidationRules(ctx, cred, objectType)

	var props []model.PropertyDefinition
	after := ""
	for {
		query := url.Values{"limit": {strconv.Itoa(c.cfg.PageSize)}}
		if after != "" {
			query.Set("after", after)
		}
		var page propertiesPage
		if err := c.get(ctx, cred, "fetch_properties", "/crm/v3/properties/"+url.PathEscape(objectType), query, &page); err != nil {
			return nil, err
		}
		for _, w := range page.Results {
			if w.Name == "" {
				continue
			}
			props = append(props, toProperty(w, rules[w.Name]))
		}
		if page.Paging == nil || page.Paging.Next == nil || page.Paging.Next.After == "" || page.Paging.Next.After == after {
			break
		}
		after = page.Paging.Next.After
	}

	model.SortProperties(props)
	return props, nil
}

// fetchValidationRules loads all rules of an object type in one call. Any
// failure degrades to "no rules" so properties can still be compared.
func (c *Client) fetchValidationRules(ctx context.Context, cred model.Credential, objectType string) map[string]map[string]model.ValidationRule {
	var page validationsPage
	path := "/crm/v3/property-validations/" + url.PathEscape(model.ObjectTypeID(objectType))
	if err := c.get(ctx, cred, "fetch_validations", path, nil, &page); err != nil {
		c.log.Debugf("No validation rules for %s: %v", objectType, err)
		return nil
	}
	return toRules(page)
}

// FetchSchemas returns the standard object catalog followed by the custom
// object schemas of the portal. Properties are not included.
func (c *Client) FetchSchemas(ctx context.Context, cred model.Credential) ([]model.ObjectSchema, error) {
	var page schemasPage
	if err := c.get(ctx, cred, "fetch_schemas", "/crm/v3/schemas", nil, &page); err != nil {
		return nil, err
	}

	schemas := make([]model.ObjectSchema, 0, len(model.StandardObjectTypes)+len(page.Results))
	for _, name := range model.StandardObjectTypes {
		schemas = append(schemas, model.StandardSchema(name))
	}
	for _, r := range page.Results {
		if !model.IsCustomSchema(r.ObjectTypeID, r.FullyQualifiedName) {
			continue
		}
		schemas = append(schemas, model.ObjectSchema{
			ObjectTypeID:       r.ObjectTypeID,
			Name:               r.Name,
			FullyQualifiedName: r.FullyQualifiedName,
			Labels:             model.ObjectLabels{Singular: r.Labels.Singular, Plural: r.Labels.Plural},
			Custom:             true,
		})
	}
	return schemas, nil
}

// FetchAssociations returns the association types defined from one object
// type to another.
func (c *Client) FetchAssociations(ctx context.Context, cred model.Credential, from, to string) ([]model.AssociationType, error) {
	var page associationLabelsPage
	path := fmt.Sprintf("/crm/v4/associations/%s/%s/labels",
		url.PathEscape(model.ObjectTypeID(from)), url.PathEscape(model.ObjectTypeID(to)))
	if err := c.get(ctx, cred, "fetch_associations", path, nil, &page); err != nil {
		return nil, err
	}

	types := make([]model.AssociationType, 0, len(page.Results))
	for _, r := range page.Results {
		label := ""
		if r.Label != nil {
			label = *r.Label
		}
		types = append(types, model.AssociationType{
			FromObject: from,
			ToObject:   to,
			Label:      label,
			Category:   model.AssociationCategory(r.Category),
			TypeID:     r.TypeID,
		})
	}
	model.SortAssociations(types)
	return types, nil
}

// get performs one logical GET with 429 backoff behind the credential's
// circuit breaker.
func (c *Client) get(ctx context.Context, cred model.Credential, operation, path string, query url.Values, out interface{}) error {
	ctx = utils.WithOperation(ctx, operation)
	start := time.Now()
	breaker := c.breaker(cred)

	attempt := func(ctx context.Context) error {
		_, err := breaker.Execute(func() (interface{}, error) {
			return nil, c.do(ctx, cred, path, query, out)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s: %v", model.ErrTransport, operation, err)
		}
		return err
	}

	var err error
	if c.cfg.RateLimitRetry <= 0 {
		err = attempt(ctx)
	} else {
		var lastErr error
		err = retry.Exponential(c.cfg.RateLimitRetry, retry.WithUnits(c.cfg.RetryUnit), retry.WithJitter(c.cfg.RetryUnit/2)).
			RetryWithContext(ctx, func(ctx context.Context) error {
				lastErr = attempt(ctx)
				if errors.Is(lastErr, model.ErrRateLimited) {
					return retry.ExpectedError(lastErr)
				}
				return lastErr
			})
		if err != nil && lastErr != nil {
			err = lastErr
		}
	}

	if err != nil {
		c.log.WithContext(ctx).Debugf("HubSpot request %s failed: %v", path, err)
	}
	c.metrics.FetchCompleted(operation, time.Since(start), err)
	return err
}

func (c *Client) do(ctx context.Context, cred model.Credential, path string, query url.Values, out interface{}) error {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", model.ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Reveal())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", model.ErrTransport, path, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, path); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", model.ErrTransport, path, err)
	}
	return nil
}

func statusError(resp *http.Response, path string) error {
	if resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: GET %s returned %d", model.ErrUpstreamAuth, path, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: GET %s", model.ErrRateLimited, path)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: GET %s", model.ErrUpstreamNotFound, path)
	default:
		return fmt.Errorf("%w: GET %s returned %d: %s", model.ErrTransport, path, resp.StatusCode, body)
	}
}

// breaker returns the circuit breaker of a credential, keyed by fingerprint.
// Only transport failures count towards tripping it.
func (c *Client) breaker(cred model.Credential) *gobreaker.CircuitBreaker {
	key := cred.Fingerprint()

	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[key]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "hubspot-" + key,
		MaxRequests: 1,
		Timeout:     c.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < c.cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= c.cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warnf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, model.ErrTransport)
		},
	})
	c.breakers[key] = cb
	return cb
}

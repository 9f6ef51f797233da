// Package pipedrive is a read-only client for the Pipedrive CRM v1 API.
package pipedrive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/logging"
)

// PageSize is the page length used when walking every page of a list.
const PageSize = 500

// Client provides access to the Pipedrive API. Every method is a GET.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	configErr  error
	logger     *zap.Logger
}

// NewClient creates a client from configuration. An incomplete configuration does
// not fail here; every call then returns UpstreamConfigError.
func NewClient(cfg config.PipedriveConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   cfg.APIBaseURL(),
		apiToken:  cfg.APIToken,
		configErr: cfg.Validate(),
		logger:    logger.Named("pipedrive"),
	}
}

// envelope is the wrapper around every Pipedrive response.
type envelope struct {
	Success        bool            `json:"success"`
	Data           json.RawMessage `json:"data"`
	Error          string          `json:"error"`
	ErrorInfo      string          `json:"error_info"`
	AdditionalData struct {
		Pagination *Pagination `json:"pagination"`
	} `json:"additional_data"`
}

type Pagination struct {
	Start                 int  `json:"start"`
	Limit                 int  `json:"limit"`
	MoreItemsInCollection bool `json:"more_items_in_collection"`
	NextStart             int  `json:"next_start"`
}

// ListOptions pages through a list endpoint. Zero values are omitted.
type ListOptions struct {
	Limit int
	Start int
}

func (o ListOptions) apply(q url.Values) {
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Start > 0 {
		q.Set("start", strconv.Itoa(o.Start))
	}
}

// get performs one request and decodes envelope.data into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, resource string, out any) error {
	_, err := c.getPage(ctx, path, query, resource, out)
	return err
}

// getPage is get for list endpoints; it also returns the pagination block, which is
// nil when Pipedrive did not send one.
func (c *Client) getPage(ctx context.Context, path string, query url.Values, resource string, out any) (*Pagination, error) {
	if c.configErr != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamConfig, c.configErr.Error(), nil)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.apiToken)
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", c.redact(err))
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Calling Pipedrive", zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.ClassifyUpstream(ctxErr, 0)
		}
		return nil, apperrors.ClassifyUpstream(c.redact(err), 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ClassifyUpstream(c.redact(err), resp.StatusCode)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("Pipedrive API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if decodeErr == nil {
			if env.Error != "" {
				message = env.Error
			} else if env.ErrorInfo != "" {
				message = env.ErrorInfo
			}
		}
		c.logger.Warn("Pipedrive returned error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", logging.RedactSecret(message, c.apiToken)),
		)
		if resp.StatusCode == http.StatusNotFound {
			return nil, apperrors.NotFound(resource)
		}
		return nil, apperrors.ClassifyUpstream(c.redact(errors.New(message)), resp.StatusCode)
	}

	if decodeErr != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "invalid response from Pipedrive", decodeErr)
	}
	if !env.Success {
		message := env.Error
		if message == "" {
			message = "Pipedrive API request failed"
		}
		return nil, apperrors.Wrap(apperrors.KindUpstream, logging.RedactSecret(message, c.apiToken), nil)
	}
	// null data leaves out untouched; single-item callers check for a zero id
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return env.AdditionalData.Pagination, nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "unexpected "+resource+" payload from Pipedrive", err)
	}
	return env.AdditionalData.Pagination, nil
}

// redact strips the API token from transport errors, which quote the request URL.
func (c *Client) redact(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(logging.RedactSecret(err.Error(), c.apiToken))
}

// ParseTime parses Pipedrive's "2006-01-02 15:04:05" UTC timestamps. It returns nil
// for empty or unparseable input.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

package zabbix

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kidoz/zabbix-event-export-go/internal/config"
	"github.com/kidoz/zabbix-event-export-go/internal/metrics"
	"github.com/kidoz/zabbix-event-export-go/internal/telemetry"
)

const userAgent = "zbx-export"

// Client is a Zabbix API client. It is not safe for concurrent use; the
// exporter drives it one request at a time.
type Client struct {
	url        string
	log        *zap.Logger
	metrics    *metrics.Recorder
	httpClient *http.Client
	authToken  string
	apiVersion string
}

// NewClient creates a Zabbix API client for cfg.APIURL. It does not talk to
// the server; call GetAPIVersion and Login first.
func NewClient(cfg *config.Config, log *zap.Logger, rec *metrics.Recorder) *Client {
	// System root store, TLS 1.2 or newer.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}

	return &Client{
		url:     cfg.APIURL,
		log:     log,
		metrics: rec,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(transport),
		},
	}
}

// GetAPIVersion calls apiinfo.version and remembers the answer for
// version-dependent request shapes.
func (c *Client) GetAPIVersion(ctx context.Context) (string, error) {
	result, err := c.call(ctx, "apiinfo.version", []string{})
	if err != nil {
		return "", err
	}
	var version string
	if err := json.Unmarshal(result, &version); err != nil {
		return "", fmt.Errorf("unexpected API version type: %w", err)
	}
	c.apiVersion = version
	c.log.Debug("Detected Zabbix API version", zap.String("version", version))
	return version, nil
}

// APIVersion returns the version fetched by GetAPIVersion.
func (c *Client) APIVersion() string {
	return c.apiVersion
}

// getAPIVersionFloat parses the stored API version string (e.g. "6.4.1") into
// a float like 6.4 for version-aware branching.
func (c *Client) getAPIVersionFloat() float64 {
	return versionFloat(c.apiVersion)
}

func versionFloat(version string) float64 {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) >= 2 {
		v, _ := strconv.ParseFloat(parts[0]+"."+parts[1], 64)
		return v
	}
	return 0
}

// IsLegacyVersion reports whether events from this API version lack their
// own severity and name (Zabbix 3.x and older). Unparseable versions count
// as legacy.
func IsLegacyVersion(version string) bool {
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return true
	}
	return n < 4
}

// Login authenticates and stores the session token. Zabbix 5.4 renamed the
// user parameter to username. The API version must be known before login
// since it also decides how the token is sent.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if c.apiVersion == "" {
		if _, err := c.GetAPIVersion(ctx); err != nil {
			return fmt.Errorf("failed to get API version: %w", err)
		}
	}

	userKey := "user"
	if c.getAPIVersionFloat() >= 5.4 {
		userKey = "username"
	}
	params := Params{
		userKey:    username,
		"password": password,
	}

	result, err := c.call(ctx, "user.login", params)
	if err != nil {
		return err
	}

	var token string
	if err := json.Unmarshal(result, &token); err != nil {
		return fmt.Errorf("unexpected auth response type: %w", err)
	}

	c.authToken = token
	c.log.Debug("Authenticated with Zabbix API", zap.String("user", username))
	return nil
}

// Logout invalidates the session token. It is a no-op without a session.
func (c *Client) Logout(ctx context.Context) error {
	if c.authToken == "" {
		return nil
	}

	_, err := c.call(ctx, "user.logout", []string{})
	c.authToken = ""
	return err
}

// call makes a JSON-RPC call to the Zabbix API and returns the raw result.
func (c *Client) call(ctx context.Context, name string, params interface{}) (result json.RawMessage, err error) {
	m, err := lookupMethod(name)
	if err != nil {
		return nil, err
	}
	if m.validateParams != nil {
		if err := m.validateParams(params); err != nil {
			c.log.Error("Query parameters rejected", zap.String("method", name), zap.Error(err))
			return nil, err
		}
	}

	ctx, span := telemetry.Tracer().Start(ctx, "zabbix."+name)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		c.metrics.ObserveRequest(name, err)
	}()

	reqID := rand.IntN(1001)
	span.SetAttributes(attribute.String("rpc.method", name), attribute.Int("rpc.id", reqID))

	body, err := c.marshalRequest(name, m, params, reqID)
	if err != nil {
		return nil, err
	}

	c.log.Debug("Calling Zabbix API", zap.String("method", name), zap.Int("id", reqID))

	// GET with a JSON body; api_jsonrpc.php reads the body regardless of verb.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache")
	if !m.anonymous && c.bearerAuth() && c.authToken != "" && name != "user.login" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("Unexpected HTTP status", zap.String("method", name), zap.Int("status", resp.StatusCode))
		return nil, &ProtocolError{URL: c.url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(apiResp.Result) == 0 {
		if apiResp.Error != nil {
			c.log.Error("Zabbix API error",
				zap.String("method", name),
				zap.Int("code", apiResp.Error.Code),
				zap.String("message", apiResp.Error.Message),
				zap.String("data", apiResp.Error.Data),
			)
			return nil, apiResp.Error
		}
		c.log.Error("Zabbix API response without result", zap.String("method", name), zap.ByteString("body", respBody))
		return nil, ErrUnknownResponse
	}

	if m.validateResult != nil {
		if err := m.validateResult(apiResp.Result); err != nil {
			return nil, err
		}
	}

	return apiResp.Result, nil
}

// bearerAuth reports whether the session token travels in an
// Authorization header. Zabbix 6.4 added the header and 7.2 rejects the
// auth member in the body.
func (c *Client) bearerAuth() bool {
	return c.getAPIVersionFloat() >= 6.4
}

func (c *Client) marshalRequest(name string, m method, params interface{}, id int) ([]byte, error) {
	var reqBody interface{}
	if m.anonymous || c.bearerAuth() {
		reqBody = anonymousRequest{JSONRPC: "2.0", Method: name, Params: params, ID: id}
	} else {
		r := Request{JSONRPC: "2.0", Method: name, Params: params, ID: id}
		if c.authToken != "" && name != "user.login" {
			token := c.authToken
			r.Auth = &token
		}
		reqBody = r
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

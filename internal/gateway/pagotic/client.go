package pagotic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Config holds the provider credentials and endpoints.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	CollectorID  string
	Currency     string
	Timeout      time.Duration
}

// Client talks to the PagoTIC API.  Authentication uses a short-lived
// bearer token obtained through a client-credentials exchange; the token
// is cached and refreshed transparently.  All calls run under the
// configured timeout (default 15s).
type Client struct {
	cfg Config
	hc  *http.Client

	// mu guards the cached access token.
	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient creates a provider client from the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "ARS"
	}
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
	}
}

// CreatePayment submits a payment-creation request.  An expired token is
// refreshed and the request retried exactly once before the failure is
// surfaced.  Timeouts come back as ErrGatewayTimeout so callers can
// distinguish them from provider rejections.
func (c *Client) CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	if req.CurrencyID == "" {
		req.CurrencyID = c.cfg.Currency
	}
	if req.CollectorID == "" {
		req.CollectorID = c.cfg.CollectorID
	}
	var resp PaymentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/pagos", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPayment fetches the provider-side state of a payment by provider
// id.  Used by the status-polling endpoint.
func (c *Client) GetPayment(ctx context.Context, id string) (*PaymentResponse, error) {
	var resp PaymentResponse
	path := "/pagos/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doJSON performs one authenticated request, refreshing the bearer token
// and retrying once on 401.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	for attempt := 0; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}
		status, raw, err := c.do(ctx, method, path, token, body)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized && attempt == 0 {
			c.invalidateToken()
			continue
		}
		if status < 200 || status >= 300 {
			log.Printf("pagotic: %s %s failed: status=%d body=%s", method, path, status, raw)
			return &Error{StatusCode: status, Body: string(raw)}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("pagotic: invalid provider JSON: %w", err)
		}
		return nil
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, nil, ErrGatewayTimeout
		}
		return 0, nil, fmt.Errorf("pagotic: request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

// accessToken returns the cached token or performs the credential
// exchange when none is cached or the cached one is near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", ErrGatewayTimeout
		}
		return "", fmt.Errorf("pagotic: token exchange failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		log.Printf("pagotic: token exchange rejected: status=%d body=%s", resp.StatusCode, raw)
		return "", &Error{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	var reply struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("pagotic: invalid token JSON: %w", err)
	}
	if reply.AccessToken == "" {
		return "", errors.New("pagotic: empty access token")
	}

	c.mu.Lock()
	c.token = reply.AccessToken
	// refresh 30s early to avoid using a token that expires in flight
	c.tokenExp = time.Now().Add(time.Duration(reply.ExpiresIn)*time.Second - 30*time.Second)
	c.mu.Unlock()
	return reply.AccessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

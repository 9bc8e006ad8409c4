package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ClientConfig struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	KeyID     string `json:"keyId" mapstructure:"key_id"`
	KeySecret string `json:"keySecret" mapstructure:"key_secret"`
	Timeout   time.Duration
}

type Client struct {
	// baseURL is the base url of the Razorpay API.
	baseURL string

	// keyID is the public key id, also handed to the checkout widget.
	keyID string

	// keySecret authenticates API calls and signs payment callbacks.
	keySecret string

	// hc is the http client.
	hc *http.Client
}

// FormOrder is the body of POST /v1/orders. Amount is in minor units.
type FormOrder struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	Attempts  int    `json:"attempts"`
	CreatedAt int64  `json:"created_at"`
}

// APIError is the error envelope returned by the Razorpay API.
type APIError struct {
	StatusCode  int
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: status %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

// NewClient creates new instance of Razorpay client.
func NewClient(c *ClientConfig) *Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimRight(c.BaseURL, "/"),
		keyID:     c.KeyID,
		keySecret: c.KeySecret,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder makes http call to create an order the customer pays against.
func (c *Client) CreateOrder(ctx context.Context, f *FormOrder) (*Order, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("razorpay: createOrder: json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("razorpay: createOrder: http.NewReq: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: createOrder: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("razorpay: createOrder: json.Decode: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay: createOrder: response has no order id")
	}

	return &order, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var reply struct {
		Error APIError `json:"error"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(raw, &reply); err == nil && reply.Error.Code != "" {
		apiErr.Code = reply.Error.Code
		apiErr.Description = reply.Error.Description
	} else {
		apiErr.Code = http.StatusText(resp.StatusCode)
		apiErr.Description = string(raw)
	}
	return apiErr
}

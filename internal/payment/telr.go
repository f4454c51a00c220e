package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"storefront-service/internal/config"
)

// TelrClient is a Gateway backed by Telr's hosted payment page API.
type TelrClient struct {
	cfg        config.TelrConfig
	httpClient *http.Client
}

func NewTelrClient(cfg config.TelrConfig, httpClient *http.Client) *TelrClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &TelrClient{cfg: cfg, httpClient: httpClient}
}

type telrError struct {
	Message string `json:"message"`
	Note    string `json:"note"`
}

type telrResponse struct {
	Order struct {
		Ref    string `json:"ref"`
		URL    string `json:"url"`
		CartID string `json:"cartid"`
		Status struct {
			Code int    `json:"code"`
			Text string `json:"text"`
		} `json:"status"`
	} `json:"order"`
	Error *telrError `json:"error,omitempty"`
}

func (c *TelrClient) testFlag() int {
	if c.cfg.TestMode {
		return 1
	}
	return 0
}

func (c *TelrClient) CreatePayment(ctx context.Context, req Request) (*Session, error) {
	if c.cfg.StoreID == 0 || c.cfg.AuthKey == "" || c.cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: telr configuration missing", ErrGateway)
	}

	payload := map[string]any{
		"method":  "create",
		"store":   c.cfg.StoreID,
		"authkey": c.cfg.AuthKey,
		"order": map[string]any{
			"cartid":      req.Reference,
			"test":        c.testFlag(),
			"amount":      decimal.New(req.Amount, -2).StringFixed(2),
			"currency":    req.Currency,
			"description": req.Description,
		},
		"customer": map[string]any{
			"name":  req.Customer.Name,
			"email": req.Customer.Email,
			"phone": req.Customer.Phone,
			"address": map[string]string{
				"line1":    req.Customer.Address.Line1,
				"line2":    req.Customer.Address.Line2,
				"city":     req.Customer.Address.City,
				"region":   req.Customer.Address.Region,
				"country":  req.Customer.Address.Country,
				"postcode": req.Customer.Address.Postcode,
			},
		},
		"return": map[string]string{
			"authorised": c.cfg.AuthorisedURL,
			"declined":   c.cfg.DeclinedURL,
			"cancelled":  c.cfg.CancelledURL,
		},
	}

	resp, err := c.do(ctx, payload)
	if err != nil {
		return nil, err
	}
	if resp.Order.URL == "" || resp.Order.Ref == "" {
		return nil, fmt.Errorf("%w: telr returned no payment url", ErrGateway)
	}
	return &Session{GatewayRef: resp.Order.Ref, URL: resp.Order.URL}, nil
}

func (c *TelrClient) CheckPayment(ctx context.Context, gatewayRef string) (Status, error) {
	payload := map[string]any{
		"method":  "check",
		"store":   c.cfg.StoreID,
		"authkey": c.cfg.AuthKey,
		"order":   map[string]string{"ref": gatewayRef},
	}

	resp, err := c.do(ctx, payload)
	if err != nil {
		return "", err
	}
	return telrStatus(resp.Order.Status.Code), nil
}

// telrStatus maps Telr order status codes.
func telrStatus(code int) Status {
	switch code {
	case 2, 3:
		return StatusPaid
	case -1:
		return StatusExpired
	case -2:
		return StatusCancelled
	case -3:
		return StatusDeclined
	default:
		return StatusPending
	}
}

func (c *TelrClient) do(ctx context.Context, payload map[string]any) (*telrResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: telr status %d: %s", ErrGateway, resp.StatusCode, raw)
	}

	var out telrResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode telr response: %v", ErrGateway, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%w: telr: %s %s", ErrGateway, out.Error.Message, out.Error.Note)
	}
	return &out, nil
}

// Package paymentprovider реализует клиент платёжного шлюза Midtrans Snap:
// создание транзакции и проверку подписи входящих уведомлений.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-platform/internal/config"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
)

// Базовые адреса Snap API.
const (
	SandboxBaseURL    = "https://app.sandbox.midtrans.com"
	ProductionBaseURL = "https://app.midtrans.com"
)

const transactionsPath = "/snap/v1/transactions"

// Client клиент Midtrans Snap.
type Client struct {
	name       string
	serverKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиент по настройкам платежей. Явный base_url имеет
// приоритет над выбором sandbox/production.
func NewClient(cfg config.Payment) *Client {
	apiURL := cfg.BaseURL
	if apiURL == "" {
		apiURL = SandboxBaseURL
		if cfg.IsProduction {
			apiURL = ProductionBaseURL
		}
	}
	timeout := cfg.TimeoutPayment
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		name:       cfg.ProviderName,
		serverKey:  cfg.ServerKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name имя провайдера, сохраняемое в подписке.
func (c *Client) Name() string {
	return c.name
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.serverKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// CreateTransaction создаёт Snap-транзакцию. Любой отказ шлюза или сетевая
// ошибка возвращаются как apperr.ErrUpstream, повторов нет.
func (c *Client) CreateTransaction(ctx context.Context, reqParams TransactionRequest) (*TransactionResponse, error) {
	const op = "paymentprovider.CreateTransaction"

	req, err := c.newRequest(ctx, http.MethodPost, transactionsPath, reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var gwErr errorResponse
		_ = json.Unmarshal(body, &gwErr)
		return nil, fmt.Errorf("%s: %w: unexpected status %s: %s",
			op, apperr.ErrUpstream, resp.Status, strings.Join(gwErr.ErrorMessages, "; "))
	}

	var trxResp TransactionResponse
	if err := json.Unmarshal(body, &trxResp); err != nil {
		return nil, fmt.Errorf("%s: %w: decode response: %w", op, apperr.ErrUpstream, err)
	}
	if trxResp.Token == "" {
		return nil, fmt.Errorf("%s: %w: empty token", op, apperr.ErrUpstream)
	}
	return &trxResp, nil
}

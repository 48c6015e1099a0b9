package paypack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ClientConfig struct {
	BaseURL       string
	CashInTimeout time.Duration
	QueryTimeout  time.Duration
}

// Client wraps the provider endpoints used for collections.
type Client struct {
	baseURL       string
	http          *http.Client
	tokens        *TokenCache
	cashInTimeout time.Duration
	queryTimeout  time.Duration
	logger        *zap.Logger
}

func NewClient(cfg ClientConfig, tokens *TokenCache, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.CashInTimeout <= 0 {
		cfg.CashInTimeout = 15 * time.Second
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		http:          httpClient,
		tokens:        tokens,
		cashInTimeout: cfg.CashInTimeout,
		queryTimeout:  cfg.QueryTimeout,
		logger:        logger.With(zap.String("component", "paypack_client")),
	}
}

// Token exposes the cached credential; used for early auth failure and health.
func (c *Client) Token(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

// Ping succeeds when a token can be obtained.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.tokens.Token(ctx)
	return err
}

// InitiatePayment requests a mobile-money collection; the amount is sent in whole units.
func (c *Client) InitiatePayment(ctx context.Context, in CashIn) (Ack, error) {
	if in.Amount.IsNegative() {
		return Ack{}, ErrInvalidAmount
	}
	amount := in.Amount.Round(0).IntPart()

	payload, err := json.Marshal(cashInRequest{
		Amount:      amount,
		Phone:       in.Phone,
		TxRef:       in.Reference,
		CallbackURL: in.CallbackURL,
	})
	if err != nil {
		return Ack{}, err
	}

	body, err := c.do(ctx, "cashin", http.MethodPost, "/collection/request", payload, c.cashInTimeout)
	if err != nil {
		return Ack{}, err
	}

	fields, err := DecodeFields(body)
	if err != nil {
		return Ack{}, &GatewayError{Op: "cashin", Status: http.StatusOK, Body: truncateBody(body), Err: err}
	}
	ack := Ack{
		Reference: fields.Reference(),
		Status:    fields.Status(),
		Amount:    amount,
		Raw:       json.RawMessage(body),
	}
	// some responses do not echo the reference
	if ack.Reference == "" {
		ack.Reference = in.Reference
	}
	c.logger.Info("cash-in accepted",
		zap.String("reference", ack.Reference),
		zap.String("status", ack.Status),
		zap.Int64("amount", amount),
	)
	return ack, nil
}

// QueryTransaction fetches the provider's status for a reference.
func (c *Client) QueryTransaction(ctx context.Context, reference string) (TransactionStatus, error) {
	path := "/transactions/" + url.PathEscape(reference)
	body, err := c.do(ctx, "query", http.MethodGet, path, nil, c.queryTimeout)
	if err != nil {
		return TransactionStatus{}, err
	}

	fields, err := DecodeFields(body)
	if err != nil {
		return TransactionStatus{}, &GatewayError{Op: "query", Status: http.StatusOK, Body: truncateBody(body), Err: err}
	}
	st := TransactionStatus{
		Reference: fields.Reference(),
		Status:    fields.Status(),
		Raw:       json.RawMessage(body),
	}
	if st.Reference == "" {
		st.Reference = reference
	}
	return st, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte, timeout time.Duration) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("provider call timed out", zap.String("op", op), zap.Duration("timeout", timeout))
		}
		return nil, &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &GatewayError{Op: op, Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.tokens.Invalidate()
		return nil, &GatewayError{Op: op, Status: resp.StatusCode, Body: truncateBody(body), Err: ErrAuthExpired}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &GatewayError{Op: op, Status: resp.StatusCode, Body: truncateBody(body), Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return body, nil
}

// Package ledger is the GraphQL client for the remote ledger service: one
// query (default wallet by handle) and three payment mutations. The ledger's
// consistency guarantees are assumed; this package only speaks its wire
// protocol and classifies its failures.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	dErrors "satpay/pkg/domain-errors"
	"satpay/pkg/platform/sentinel"
)

const maxResponseBytes = 1 << 20

// Client calls the ledger GraphQL endpoint, authenticating every request
// with an API-key header.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New constructs a ledger client. timeout bounds every call.
func New(endpoint, apiKey string, timeout time.Duration, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("ledger endpoint is required")
	}
	c := &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

const queryDefaultWallet = `
query accountDefaultWallet($username: Username!) {
  accountDefaultWallet(username: $username) {
    id
    walletCurrency
  }
}`

const mutationIntraLedgerSend = `
mutation intraLedgerPaymentSend($input: IntraLedgerPaymentSendInput!) {
  intraLedgerPaymentSend(input: $input) {
    status
    errors { message code }
  }
}`

const mutationLnAddressSend = `
mutation lnAddressPaymentSend($input: LnAddressPaymentSendInput!) {
  lnAddressPaymentSend(input: $input) {
    status
    errors { message code }
  }
}`

const mutationLnInvoiceSend = `
mutation lnInvoicePaymentSend($input: LnInvoicePaymentSendInput!) {
  lnInvoicePaymentSend(input: $input) {
    status
    errors { message code }
  }
}`

type paymentPayload struct {
	Status string `json:"status"`
	Errors []struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"errors"`
}

// DefaultWalletID resolves an account handle to its default wallet.
func (c *Client) DefaultWalletID(ctx context.Context, handle string) (string, error) {
	var out struct {
		AccountDefaultWallet *struct {
			ID string `json:"id"`
		} `json:"accountDefaultWallet"`
	}
	err := c.do(ctx, queryDefaultWallet, map[string]any{"username": handle}, &out)
	if err != nil {
		var ge *graphqlError
		if errors.As(err, &ge) && ge.notFound() {
			return "", fmt.Errorf("account %q: %w", handle, sentinel.ErrNotFound)
		}
		return "", err
	}
	if out.AccountDefaultWallet == nil || out.AccountDefaultWallet.ID == "" {
		return "", fmt.Errorf("account %q: %w", handle, sentinel.ErrNotFound)
	}
	return out.AccountDefaultWallet.ID, nil
}

// SendIntraLedger settles wallet-to-wallet on the home ledger.
func (c *Client) SendIntraLedger(ctx context.Context, walletID string, sats int64, memo string) (string, error) {
	input := map[string]any{
		"recipientWalletId": walletID,
		"amount":            sats,
	}
	if memo != "" {
		input["memo"] = memo
	}
	var out struct {
		IntraLedgerPaymentSend paymentPayload `json:"intraLedgerPaymentSend"`
	}
	if err := c.do(ctx, mutationIntraLedgerSend, map[string]any{"input": input}, &out); err != nil {
		return "", err
	}
	return paymentStatus(out.IntraLedgerPaymentSend)
}

// SendToLnAddress pays a LUD-16 Lightning Address.
func (c *Client) SendToLnAddress(ctx context.Context, address string, sats int64) (string, error) {
	var out struct {
		LnAddressPaymentSend paymentPayload `json:"lnAddressPaymentSend"`
	}
	vars := map[string]any{"input": map[string]any{
		"lnAddress": address,
		"amount":    sats,
	}}
	if err := c.do(ctx, mutationLnAddressSend, vars, &out); err != nil {
		return "", err
	}
	return paymentStatus(out.LnAddressPaymentSend)
}

// PayInvoice pays a BOLT-11 payment request.
func (c *Client) PayInvoice(ctx context.Context, paymentRequest string) (string, error) {
	var out struct {
		LnInvoicePaymentSend paymentPayload `json:"lnInvoicePaymentSend"`
	}
	vars := map[string]any{"input": map[string]any{
		"paymentRequest": paymentRequest,
	}}
	if err := c.do(ctx, mutationLnInvoiceSend, vars, &out); err != nil {
		return "", err
	}
	return paymentStatus(out.LnInvoicePaymentSend)
}

// paymentStatus maps a payment payload to a status string or a sentinel-backed
// error the orchestrator can classify.
func paymentStatus(p paymentPayload) (string, error) {
	if len(p.Errors) > 0 {
		first := p.Errors[0]
		return "", classifyLedgerError(first.Code, first.Message)
	}
	if p.Status == "" || strings.EqualFold(p.Status, "FAILURE") {
		return "", fmt.Errorf("payment failed with status %q", p.Status)
	}
	return p.Status, nil
}

func classifyLedgerError(code, message string) error {
	lower := strings.ToLower(code + " " + message)
	switch {
	case strings.Contains(lower, "insufficient"):
		return fmt.Errorf("%s: %w", message, sentinel.ErrInsufficientBalance)
	case strings.Contains(lower, "route"):
		return fmt.Errorf("%s: %w", message, sentinel.ErrNoRoute)
	case strings.Contains(lower, "expired"):
		return fmt.Errorf("%s: %w", message, sentinel.ErrInvoiceExpired)
	case strings.Contains(lower, "lock") || strings.Contains(lower, "resource"):
		return fmt.Errorf("%s: %w", message, sentinel.ErrAccountLocked)
	default:
		return fmt.Errorf("ledger error %s: %s", code, message)
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *graphqlError) Error() string { return e.Message }

func (e *graphqlError) notFound() bool {
	lower := strings.ToLower(e.Message + " " + e.Code)
	return strings.Contains(lower, "not found") || strings.Contains(lower, "notfound")
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not encode graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not build graphql request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger request timed out")
		}
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger request timed out")
		}
		return dErrors.Wrap(fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err), dErrors.CodeUnavailable, "ledger unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not read ledger response")
	}
	if resp.StatusCode != http.StatusOK {
		return dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable,
			fmt.Sprintf("ledger returned status %d", resp.StatusCode))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger response is not valid JSON")
	}
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		if c.logger != nil {
			c.logger.WarnContext(ctx, "ledger graphql error", "message", first.Message, "code", first.Code)
		}
		return &first
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not decode ledger data")
		}
	}
	return nil
}

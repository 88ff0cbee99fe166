package lnurl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"satpay/internal/batch/models"
	dErrors "satpay/pkg/domain-errors"
	"satpay/pkg/platform/sentinel"
)

// maxResponseBytes caps how much of an external response is read. LNURL-pay
// responses are small; anything bigger is hostile or broken.
const maxResponseBytes = 1 << 20

// Client fetches LUD-06 pay parameters and invoices from external services.
type Client struct {
	http *http.Client
}

// NewClient builds a client with the given per-call timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

type payRequestResponse struct {
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	Tag         string `json:"tag"`
	Callback    string `json:"callback"`
	MinSendable int64  `json:"minSendable"`
	MaxSendable int64  `json:"maxSendable"`
	Metadata    string `json:"metadata"`
}

type invoiceResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	PR     string `json:"pr"`
}

// FetchPayParams GETs a LNURL-pay endpoint and validates the LUD-06 shape.
// Wire faults come back wrapped around sentinel.ErrUnavailable; a reachable
// endpoint answering garbage is a CodeValidation domain error.
func (c *Client) FetchPayParams(ctx context.Context, rawURL string) (*models.LnurlPayDescriptor, error) {
	var resp payRequestResponse
	if err := c.getJSON(ctx, rawURL, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "ERROR" {
		return nil, dErrors.Newf(dErrors.CodeValidation, "lnurl service error: %s", resp.Reason)
	}
	if resp.Tag != "payRequest" {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unexpected lnurl tag %q", resp.Tag)
	}
	if resp.Callback == "" || resp.MinSendable <= 0 || resp.MaxSendable < resp.MinSendable {
		return nil, dErrors.New(dErrors.CodeValidation, "lnurl response missing callback or sendable bounds")
	}

	return &models.LnurlPayDescriptor{
		Callback:    resp.Callback,
		MinSendable: resp.MinSendable,
		MaxSendable: resp.MaxSendable,
		Metadata:    resp.Metadata,
	}, nil
}

// FetchInvoice requests a one-time invoice from a validated callback, with
// the amount appended in millisatoshi per LUD-06.
func (c *Client) FetchInvoice(ctx context.Context, callback string, msat int64) (string, error) {
	u, err := url.Parse(callback)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid callback URL")
	}
	q := u.Query()
	q.Set("amount", strconv.FormatInt(msat, 10))
	u.RawQuery = q.Encode()

	var resp invoiceResponse
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return "", err
	}
	if resp.Status == "ERROR" {
		return "", dErrors.Newf(dErrors.CodeValidation, "lnurl callback error: %s", resp.Reason)
	}
	if resp.PR == "" {
		return "", dErrors.New(dErrors.CodeValidation, "lnurl callback returned no invoice")
	}
	return resp.PR, nil
}

// PayEndpointURL builds the LUD-16 well-known URL for a Lightning Address.
func PayEndpointURL(user, domain string) string {
	return fmt.Sprintf("https://%s/.well-known/lnurlp/%s", domain, user)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid lnurl URL")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "lnurl request timed out")
		}
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "lnurl request timed out")
		}
		return dErrors.Wrap(fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err), dErrors.CodeUnavailable, "lnurl service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable,
			fmt.Sprintf("lnurl service returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not read lnurl response")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "lnurl response is not valid JSON")
	}
	return nil
}

package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/stakepool-labs/stake-client/pkg/metrics"
)

const (
	depositEndpointName  = "deposit"
	withdrawEndpointName = "unstake"

	metricsStructName = "reconcile.client"
)

// ErrReconciliationFailed indicates the remote ledger could not record the
// observed transfer. The on-chain outcome is unaffected; callers surface this
// as a secondary warning only.
var ErrReconciliationFailed = errors.New("deposit reconciliation failed")

// Client posts observed on-chain transfers to the remote deposit ledger. The
// ledger is advisory display data; it is never the source of truth.
type Client struct {
	baseUrl    string
	httpClient *http.Client
}

// NewClient returns a client for the deposit ledger at the given base URL.
func NewClient(baseUrl string) *Client {
	if len(baseUrl) > 0 && baseUrl[len(baseUrl)-1] != '/' {
		baseUrl += "/"
	}

	return &Client{
		baseUrl:    baseUrl,
		httpClient: http.DefaultClient,
	}
}

type depositRequest struct {
	WalletAddress string  `json:"wallet_address"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
}

type depositResponse struct {
	TotalDeposited float64 `json:"total_deposited"`
}

// RecordDeposit records a confirmed transfer and returns the ledger's
// cumulative total for the owner. Any transport error, non-2xx status, or
// malformed body is ErrReconciliationFailed.
func (c *Client) RecordDeposit(ctx context.Context, ownerAddress string, amount float64) (float64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RecordDeposit")
	defer tracer.End()

	total, err := c.post(ctx, depositEndpointName, ownerAddress, amount)
	tracer.OnError(err)
	return total, err
}

// RequestWithdrawal asks the ledger to queue a withdrawal of the given
// amount. Purely a backend operation; no on-chain transfer is involved.
func (c *Client) RequestWithdrawal(ctx context.Context, ownerAddress string, amount float64) (float64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RequestWithdrawal")
	defer tracer.End()

	total, err := c.post(ctx, withdrawEndpointName, ownerAddress, amount)
	tracer.OnError(err)
	return total, err
}

func (c *Client) post(ctx context.Context, endpoint, ownerAddress string, amount float64) (float64, error) {
	reqBody, err := json.Marshal(depositRequest{
		WalletAddress: ownerAddress,
		Amount:        amount,
		Status:        "completed",
	})
	if err != nil {
		return 0, errors.Wrap(ErrReconciliationFailed, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return 0, errors.Wrap(ErrReconciliationFailed, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(ErrReconciliationFailed, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, errors.Wrap(ErrReconciliationFailed, err.Error())
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, errors.Wrapf(ErrReconciliationFailed, "received http status %d", resp.StatusCode)
	}

	var parsed depositResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, errors.Wrap(ErrReconciliationFailed, "malformed response body")
	}

	return parsed.TotalDeposited, nil
}

// Package registry talks to the downstream claims registry. The endpoint is
// a stub in this deployment; retry and backoff are intentionally absent.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
)

// Client submits accepted claims to the external registry.
type Client interface {
	SubmitClaim(ctx context.Context, payload map[string]any) (string, error)
}

// HTTPClient posts claim payloads to the registry endpoint.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) SubmitClaim(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "encode registry payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/registry/claims", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build registry request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "submit claim to registry")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("registry returned status %d", resp.StatusCode)
	}

	var receipt api.RegistryReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return "", errors.Wrap(err, "decode registry receipt")
	}
	return receipt.HceTxnID, nil
}

// StubClient acknowledges every submission in-process; used when no
// registry endpoint is configured.
type StubClient struct{}

func NewStubClient() *StubClient {
	return &StubClient{}
}

func (c *StubClient) SubmitClaim(_ context.Context, _ map[string]any) (string, error) {
	return fmt.Sprintf("HCE_%s", uuid.NewString()), nil
}

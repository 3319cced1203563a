package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	contract "studioreg/contracts/registry"
	"studioreg/pkg/platform/middleware/version"
)

// RegistryError is a refusal reported by the registry with its stable code.
type RegistryError struct {
	Code        contract.ErrorCode
	Description string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("%s (code %d): %s", e.Code, int(e.Code), e.Description)
}

// APIError is any other non-2xx response.
type APIError struct {
	Status      int
	Name        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s (HTTP %d)", e.Name, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Name, e.Status, e.Description)
}

// Client talks to a studioreg server on behalf of one caller principal.
type Client struct {
	baseURL    string
	caller     string
	httpClient *http.Client
}

func NewClient(baseURL, caller string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		caller:     caller,
		httpClient: httpClient,
	}
}

func (c *Client) Verify(ctx context.Context, studio string) error {
	return c.do(ctx, http.MethodPost, "/registry/verify", contract.VerifyRequest{Studio: studio}, nil)
}

func (c *Client) Revoke(ctx context.Context, studio string) error {
	return c.do(ctx, http.MethodPost, "/registry/revoke", contract.VerifyRequest{Studio: studio}, nil)
}

func (c *Client) TransferAdmin(ctx context.Context, newAdmin string) error {
	return c.do(ctx, http.MethodPost, "/registry/transfer-admin", contract.TransferAdminRequest{NewAdmin: newAdmin}, nil)
}

func (c *Client) IsVerified(ctx context.Context, studio string) (bool, error) {
	var out contract.VerificationStatus
	err := c.do(ctx, http.MethodGet, "/registry/is-verified/"+url.PathEscape(studio), nil, &out)
	return out.Verified, err
}

func (c *Client) Admin(ctx context.Context) (string, error) {
	var out contract.AdminResponse
	err := c.do(ctx, http.MethodGet, "/registry/admin", nil, &out)
	return out.Admin, err
}

func (c *Client) Studios(ctx context.Context) ([]string, error) {
	var out contract.StudiosResponse
	err := c.do(ctx, http.MethodGet, "/registry/studios", nil, &out)
	return out.Studios, err
}

func (c *Client) Audit(ctx context.Context, limit int) ([]contract.AuditEvent, error) {
	path := "/registry/audit"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out contract.AuditResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Events, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(version.Header, contract.ContractVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.caller != "" {
		req.Header.Set(contract.CallerHeader, c.caller)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body contract.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return &APIError{Status: resp.StatusCode, Name: http.StatusText(resp.StatusCode)}
	}
	if body.Code != 0 {
		return &RegistryError{Code: body.Code, Description: body.Description}
	}
	return &APIError{Status: resp.StatusCode, Name: body.Error, Description: body.Description}
}

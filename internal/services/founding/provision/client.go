// Package provision implements the chat-platform provisioning client
// used to create hold namespaces and channels.
package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hearthhold/hearthhold/internal/platform/timeouts"
)

// Config configures the provisioning API endpoint and credentials.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client calls the provisioning API over HTTP JSON. It satisfies the
// founding domain Provisioner contract.
type Client struct {
	cfg Config
}

// NewClient builds a provisioning client.
func NewClient(cfg Config) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provisioner base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse provisioner base url: %w", err)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Client{cfg: cfg}, nil
}

type createNamespaceRequest struct {
	Name string `json:"name"`
}

type createChannelRequest struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
}

type createdResource struct {
	ID string `json:"id"`
}

// CreateNamespace creates one hold namespace and returns its id.
func (c *Client) CreateNamespace(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("namespace name is required")
	}
	var created createdResource
	if err := c.call(ctx, http.MethodPost, "/v1/namespaces", createNamespaceRequest{Name: name}, &created); err != nil {
		return "", fmt.Errorf("create namespace: %w", err)
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", fmt.Errorf("create namespace: response is missing an id")
	}
	return created.ID, nil
}

// DeleteNamespace removes one namespace. A namespace that is already
// gone is treated as deleted so rollback stays idempotent.
func (c *Client) DeleteNamespace(ctx context.Context, namespaceID string) error {
	namespaceID = strings.TrimSpace(namespaceID)
	if namespaceID == "" {
		return fmt.Errorf("namespace id is required")
	}
	if err := c.call(ctx, http.MethodDelete, "/v1/namespaces/"+url.PathEscape(namespaceID), nil, nil); err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}
	return nil
}

// CreateChannel creates one channel under a namespace and returns its id.
func (c *Client) CreateChannel(ctx context.Context, namespaceID string, key string, kind string) (string, error) {
	namespaceID = strings.TrimSpace(namespaceID)
	key = strings.TrimSpace(key)
	kind = strings.TrimSpace(kind)
	if namespaceID == "" {
		return "", fmt.Errorf("namespace id is required")
	}
	if key == "" || kind == "" {
		return "", fmt.Errorf("channel key and kind are required")
	}
	var created createdResource
	path := "/v1/namespaces/" + url.PathEscape(namespaceID) + "/channels"
	if err := c.call(ctx, http.MethodPost, path, createChannelRequest{Key: key, Kind: kind}, &created); err != nil {
		return "", fmt.Errorf("create channel %s: %w", key, err)
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", fmt.Errorf("create channel %s: response is missing an id", key)
	}
	return created.ID, nil
}

// DeleteChannel removes one channel. An already deleted channel is
// treated as deleted.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return fmt.Errorf("channel id is required")
	}
	if err := c.call(ctx, http.MethodDelete, "/v1/channels/"+url.PathEscape(channelID), nil, nil); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, path string, payload any, result any) error {
	if c == nil || c.cfg.HTTPClient == nil {
		return fmt.Errorf("provisioner client is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.ProvisionCall)
	defer cancel()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(c.cfg.Token); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.cfg.HTTPClient.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if method == http.MethodDelete && response.StatusCode == http.StatusNotFound {
		return nil
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		message := strings.TrimSpace(string(detail))
		if message == "" {
			return fmt.Errorf("unexpected status %d", response.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", response.StatusCode, message)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

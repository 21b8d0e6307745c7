package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// PropertyClient talks to the listing service that owns property records.
type PropertyClient interface {
	PropertyExists(ctx context.Context, propertyID int64) (bool, error)
	IsOwner(ctx context.Context, propertyID, userID int64) (bool, error)
	OwnerWallet(ctx context.Context, propertyID int64) (string, error)
}

type propertyClient struct {
	httpClient *HttpClient
}

func NewPropertyClient(baseURL string, connectTimeout, requestTimeout time.Duration) PropertyClient {
	return &propertyClient{
		httpClient: NewHttpClientWithTimeouts(baseURL, connectTimeout, requestTimeout),
	}
}

type propertyResponse struct {
	ID            int64  `json:"id"`
	OwnerID       int64  `json:"ownerId"`
	WalletAddress string `json:"walletAddress"`
	Active        bool   `json:"active"`
}

func (c *propertyClient) fetch(ctx context.Context, propertyID int64) (*propertyResponse, bool, error) {
	resp, err := c.httpClient.GET(ctx, fmt.Sprintf("/api/v1/properties/%d", propertyID))
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("property service returned status %d", resp.StatusCode)
	}

	var property propertyResponse
	if err := resp.DecodeJSON(&property); err != nil {
		return nil, false, fmt.Errorf("failed to decode property response: %w", err)
	}
	return &property, true, nil
}

func (c *propertyClient) PropertyExists(ctx context.Context, propertyID int64) (bool, error) {
	property, found, err := c.fetch(ctx, propertyID)
	if err != nil {
		return false, err
	}
	return found && property.Active, nil
}

func (c *propertyClient) IsOwner(ctx context.Context, propertyID, userID int64) (bool, error) {
	property, found, err := c.fetch(ctx, propertyID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return property.OwnerID == userID, nil
}

func (c *propertyClient) OwnerWallet(ctx context.Context, propertyID int64) (string, error) {
	property, found, err := c.fetch(ctx, propertyID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("property %d not found", propertyID)
	}
	return property.WalletAddress, nil
}

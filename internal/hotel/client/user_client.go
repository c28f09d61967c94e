// Package client talks to the user-directory service over HTTP. Every call
// can fail independently of the local database transaction; callers decide
// whether that aborts their operation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID                       uint    `json:"id"`
	Login                    string  `json:"login"`
	Role                     string  `json:"role"`
	PhoneNumber              *string `json:"phone_number"`
	TrustLevel               int     `json:"trust_level"`
	ConsecutiveCancellations int     `json:"consecutive_cancellations"`
}

// UserPatch is a partial update; nil fields are left untouched.
type UserPatch struct {
	TrustLevel               *int    `json:"trust_level,omitempty"`
	ConsecutiveCancellations *int    `json:"consecutive_cancellations,omitempty"`
	PhoneNumber              *string `json:"phone_number,omitempty"`
}

type UserClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewUserClient(baseURL string) *UserClient {
	return &UserClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *UserClient) GetUser(ctx context.Context, id uint) (*User, error) {
	url := fmt.Sprintf("%s/users/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service get: unexpected status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func (c *UserClient) UpdateUser(ctx context.Context, id uint, patch UserPatch) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}

	url := fmt.Sprintf("%s/users/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("user service patch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user service patch: unexpected status %d", resp.StatusCode)
	}
	return nil
}

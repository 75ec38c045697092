package clerk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gw "github.com/rvalette/mealmind/api/services/identity/gateway"
)

// Client talks to the Clerk backend API for user lookups.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// New returns an IdentityGateway backed by the Clerk backend API.
func New(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// userResponse mirrors the fields of Clerk's user object this app reads.
type userResponse struct {
	ID                    string `json:"id"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// GetUser fetches a user by id and resolves their primary email address.
func (c *Client) GetUser(ctx context.Context, userID string) (gw.User, error) {
	url := fmt.Sprintf("%s/v1/users/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gw.User{}, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gw.User{}, fmt.Errorf("failed to execute user request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return gw.User{}, fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var u userResponse
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return gw.User{}, fmt.Errorf("failed to decode user response: %w", err)
	}

	return gw.User{ID: u.ID, Email: primaryEmail(u)}, nil
}

// primaryEmail prefers the address referenced by primary_email_address_id and
// falls back to the first listed address. Empty when the user has none.
func primaryEmail(u userResponse) string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

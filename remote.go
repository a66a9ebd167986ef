package tuition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSyncUnavailable reports that the remote store could not be reached
// or refused the credentials. It aborts the sync attempt and nothing
// else: the local copy stays authoritative and the next trigger retries.
var ErrSyncUnavailable = errors.New("sync unavailable")

// RemoteRecord is the single record the remote store keeps per user. The
// store treats the payload as an opaque blob; only the timestamp is ever
// compared.
type RemoteRecord struct {
	Owner     string          `json:"user_id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt int64           `json:"updated_at"`
}

// Decode parses the record payload into a normalized account book.
func (r *RemoteRecord) Decode() (*Accounts, error) {
	return DecodeAccounts(bytes.NewReader(r.Payload))
}

// RemoteStore is the access to the caller's single remote record.
type RemoteStore interface {
	// Authenticated reports whether a user identity is available. Without
	// one, sync is a no-op.
	Authenticated() bool
	// Fetch returns the caller's record, or nil when none exists yet.
	Fetch(ctx context.Context) (*RemoteRecord, error)
	// Push upserts the caller's record with this account book and its clock.
	Push(ctx context.Context, a *Accounts) error
}

// RemoteClient talks to a record endpoint over HTTP. The user identity is
// the Bearer token's subject claim; the claim is read without verifying
// the signature, verification is the server's job.
type RemoteClient struct {
	baseURL string
	token   string
	owner   string
	client  *http.Client
}

// NewRemoteClient returns a client for the record endpoint at baseURL.
// An empty token yields an unauthenticated client.
func NewRemoteClient(baseURL, token string) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		token:   token,
		owner:   tokenSubject(token),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// tokenSubject extracts the subject claim from a JWT without verifying it.
func tokenSubject(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// Owner returns the authenticated user id, or "".
func (c *RemoteClient) Owner() string { return c.owner }

func (c *RemoteClient) Authenticated() bool {
	return c.baseURL != "" && c.token != "" && c.owner != ""
}

func (c *RemoteClient) Fetch(ctx context.Context) (*RemoteRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/record", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var rec RemoteRecord
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: cannot parse record: %v", ErrSyncUnavailable, err)
		}
		return &rec, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: GET /v1/record: %s", ErrSyncUnavailable, resp.Status)
	}
}

func (c *RemoteClient) Push(ctx context.Context, a *Accounts) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("cannot encode account book: %w", err)
	}
	body, err := json.Marshal(RemoteRecord{
		Payload:   payload,
		UpdatedAt: a.Meta.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("cannot encode record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/v1/record", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: PUT /v1/record: %s", ErrSyncUnavailable, resp.Status)
	}
	return nil
}

var _ RemoteStore = (*RemoteClient)(nil)

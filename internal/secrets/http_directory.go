package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
)

// Compile-time check that HTTPDirectory implements PublicKeyDirectory
var _ PublicKeyDirectory = (*HTTPDirectory)(nil)

// maxResponseSize caps how much of a directory response is read.
const maxResponseSize = 1 << 20

// HTTPDirectory reads and writes the publicKey field of user profiles on a
// REST API:
//
//	GET   {BaseURL}/users/{id}  -> {"publicKey": "..."}
//	PATCH {BaseURL}/users/{id}  <- {"publicKey": "..."}
type HTTPDirectory struct {
	BaseURL string

	// Token, if set, is sent as a bearer token.
	Token string

	httpClient *http.Client
}

type userProfile struct {
	PublicKey string `json:"publicKey"`
}

// NewHTTPDirectory creates a directory client. If httpClient is nil, a client
// with a 30 second timeout is used.
func NewHTTPDirectory(baseURL, token string, httpClient *http.Client) *HTTPDirectory {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPDirectory{BaseURL: baseURL, Token: token, httpClient: httpClient}
}

func (d *HTTPDirectory) PublicKey(ctx context.Context, userID string) (string, error) {
	endpoint, err := d.userURL(userID)
	if err != nil {
		// No profile can exist under an id that is not a single path segment.
		if errors.Is(err, kerrors.ErrInvalidUserID) {
			return "", fmt.Errorf("%w: %w", kerrors.ErrPublicKeyNotFound, err)
		}
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := d.do(req)
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", kerrors.ErrPublicKeyNotFound, userID)
	case status != http.StatusOK:
		return "", fmt.Errorf("%w: unexpected status code %d from %s: %s", kerrors.ErrDirectoryUnavailable, status, endpoint, string(body))
	}

	var profile userProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", fmt.Errorf("%w: failed to parse user profile: %v", kerrors.ErrDirectoryUnavailable, err)
	}
	if profile.PublicKey == "" {
		return "", fmt.Errorf("%w: %s", kerrors.ErrPublicKeyNotFound, userID)
	}
	return profile.PublicKey, nil
}

func (d *HTTPDirectory) PublishPublicKey(ctx context.Context, userID string, publicKey string) error {
	endpoint, err := d.userURL(userID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(userProfile{PublicKey: publicKey})
	if err != nil {
		return fmt.Errorf("failed to encode user profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := d.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("%w: unexpected status code %d from %s: %s", kerrors.ErrDirectoryUnavailable, status, endpoint, string(body))
	}
	return nil
}

func (d *HTTPDirectory) userURL(userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}
	endpoint, err := url.JoinPath(d.BaseURL, "users", userID)
	if err != nil {
		return "", fmt.Errorf("failed to construct endpoint URL: %w", err)
	}
	return endpoint, nil
}

func (d *HTTPDirectory) do(req *http.Request) ([]byte, int, error) {
	if d.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.Token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", kerrors.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to read response body: %v", kerrors.ErrDirectoryUnavailable, err)
	}
	return body, resp.StatusCode, nil
}

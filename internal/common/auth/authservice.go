// internal/common/auth/authservice.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bus-tracking-services/internal/common/errors"
	commonhttp "bus-tracking-services/internal/common/http"
)

// defaultTokenLifetime applies when the admin token carries no readable exp claim.
const defaultTokenLifetime = 5 * time.Minute

// ServiceClient talks to the auth service: device token lookup for the dispatcher and
// user verification for the location API.
type ServiceClient struct {
	baseURL       string
	adminEmail    string
	adminPassword string
	httpClient    *commonhttp.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	now         func() time.Time
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

type deviceTokenResponse struct {
	DeviceToken string `json:"device_token"`
}

// User is the subset of the auth service user document the services read.
type User struct {
	ID    interface{} `json:"id"`
	Email string      `json:"email"`
	Role  string      `json:"role"`
}

func NewServiceClient(baseURL, adminEmail, adminPassword string, timeout time.Duration) *ServiceClient {
	return NewServiceClientWith(baseURL, adminEmail, adminPassword, commonhttp.NewClient(timeout))
}

func NewServiceClientWith(baseURL, adminEmail, adminPassword string, httpClient *commonhttp.Client) *ServiceClient {
	return &ServiceClient{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		httpClient:    httpClient,
		now:           time.Now,
	}
}

// ResolveDeviceToken returns the push token registered for userID.
// A 404 or an empty token is NO_DEVICE_TOKEN; anything else is RESOLUTION_FAILURE.
func (c *ServiceClient) ResolveDeviceToken(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/auth/users/%s/device_token", c.baseURL, url.PathEscape(userID))

	var resp deviceTokenResponse
	status, err := c.httpClient.GetJSON(ctx, endpoint, nil, &resp)
	if err != nil {
		if commonhttp.IsTimeout(err) {
			return "", errors.NewResolutionFailureError("device_token", errors.NewTimeoutError("auth-service", err))
		}
		return "", errors.NewResolutionFailureError("device_token", err)
	}

	switch {
	case status == http.StatusNotFound:
		return "", errors.NewNoDeviceTokenError(userID)
	case status != http.StatusOK:
		return "", errors.NewResolutionFailureError("device_token", fmt.Errorf("auth service returned status %d", status))
	case resp.DeviceToken == "":
		return "", errors.NewNoDeviceTokenError(userID)
	}

	return resp.DeviceToken, nil
}

// CheckUserExists verifies that id is a user whose role matches role. Buses are driven by
// chauffeur accounts, so role "bus" also accepts "chauffeur".
func (c *ServiceClient) CheckUserExists(ctx context.Context, id, role string) error {
	user, err := c.getUser(ctx, id)
	if err != nil {
		return err
	}

	userRole := strings.ToLower(user.Role)
	want := strings.ToLower(role)
	if userRole == want || (want == "bus" && userRole == "chauffeur") {
		return nil
	}
	return errors.NewBadRequestError(fmt.Sprintf("User %s is of type %s", id, userRole))
}

func (c *ServiceClient) getUser(ctx context.Context, id string) (*User, error) {
	endpoint := fmt.Sprintf("%s/auth/user/%s", c.baseURL, url.PathEscape(id))

	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.getAccessToken(ctx)
		if err != nil {
			return nil, err
		}

		var user User
		header := http.Header{"Authorization": []string{"Bearer " + token}}
		status, err := c.httpClient.GetJSON(ctx, endpoint, header, &user)
		if err != nil {
			return nil, errors.NewExternalServiceError("auth-service", err)
		}

		switch {
		case status == http.StatusOK:
			return &user, nil
		case status == http.StatusUnauthorized && attempt == 0:
			c.invalidateToken()
			continue
		case status == http.StatusUnauthorized:
			return nil, errors.NewAuthenticationError("auth service rejected the admin token")
		default:
			return nil, errors.NewResourceNotFoundError("User Doesn't Exist", fmt.Sprintf("userId: %s, status: %d", id, status))
		}
	}

	return nil, errors.NewAuthenticationError("auth service rejected the admin token")
}

func (c *ServiceClient) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.tokenExpiry.After(c.now()) {
		return c.accessToken, nil
	}

	var resp loginResponse
	status, err := c.httpClient.PostJSON(ctx, c.baseURL+"/auth/login", map[string]string{
		"email":    c.adminEmail,
		"password": c.adminPassword,
	}, nil, &resp)
	if err != nil {
		return "", errors.NewExternalServiceError("auth-service", err)
	}
	if status != http.StatusOK || resp.AccessToken == "" {
		return "", errors.NewAuthenticationError(fmt.Sprintf("admin login failed with status %d", status))
	}

	c.accessToken = resp.AccessToken
	c.tokenExpiry = c.expiryOf(resp.AccessToken)
	return c.accessToken, nil
}

// expiryOf reads the exp claim without verifying the signature; the token is only used
// as a bearer credential against the service that issued it.
func (c *ServiceClient) expiryOf(token string) time.Time {
	fallback := c.now().Add(defaultTokenLifetime)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	// refresh ten seconds early
	return exp.Time.Add(-10 * time.Second)
}

func (c *ServiceClient) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
}

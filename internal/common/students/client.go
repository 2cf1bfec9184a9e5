// internal/common/students/client.go
package students

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bus-tracking-services/internal/common/errors"
	commonhttp "bus-tracking-services/internal/common/http"
	"bus-tracking-services/internal/models"
)

// Client looks students up in the student directory service.
type Client struct {
	baseURL    string
	httpClient *commonhttp.Client
}

type studentResponse struct {
	ParentID models.FlexibleID `json:"parent_id"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWith(baseURL, commonhttp.NewClient(timeout))
}

func NewClientWith(baseURL string, httpClient *commonhttp.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ResolveParentID maps a student id to the id of the parent account. Every failure is a
// RESOLUTION_FAILURE; callers fall back to the student hint.
func (c *Client) ResolveParentID(ctx context.Context, studentID string) (string, error) {
	endpoint := fmt.Sprintf("%s/students/%s", c.baseURL, url.PathEscape(studentID))

	var resp studentResponse
	status, err := c.httpClient.GetJSON(ctx, endpoint, nil, &resp)
	if err != nil {
		if commonhttp.IsTimeout(err) {
			return "", errors.NewResolutionFailureError("parent", errors.NewTimeoutError("student-service", err))
		}
		return "", errors.NewResolutionFailureError("parent", err)
	}
	if status != http.StatusOK {
		return "", errors.NewResolutionFailureError("parent", fmt.Errorf("student service returned status %d", status))
	}
	if resp.ParentID == "" {
		return "", errors.NewResolutionFailureError("parent", fmt.Errorf("student %s has no parent_id", studentID))
	}

	return string(resp.ParentID), nil
}

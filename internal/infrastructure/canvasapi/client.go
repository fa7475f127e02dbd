package canvasapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/peterhellberg/link"

	"CanvasNotionSync/internal/canvas"
	"CanvasNotionSync/internal/ports"
)

const (
	defaultPageSize = 100
	maxRetries      = 3
)

// Client reads courses and assignments from the Canvas REST API,
// following Link rel="next" headers until the last page.
type Client struct {
	baseURL      string
	token        string
	client       *http.Client
	pageSize     int
	retryInitial time.Duration
	logger       *slog.Logger
}

var _ ports.AssignmentSource = (*Client)(nil)

// NewClient wires an HTTP client; pageSize defaults to 100, the Canvas
// maximum.
func NewClient(baseURL, token string, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		token:        token,
		client:       client,
		pageSize:     defaultPageSize,
		retryInitial: 500 * time.Millisecond,
		logger:       logger,
	}
}

// ListActiveCourses returns every course the token user can see whose
// current state is available or active.
func (c *Client) ListActiveCourses(ctx context.Context) ([]canvas.Course, error) {
	query := url.Values{}
	query.Set("enrollment_state", "active")
	query.Add("state[]", "available")
	query.Set("per_page", strconv.Itoa(c.pageSize))
	first := c.baseURL + "/api/v1/courses?" + query.Encode()

	var courses []canvas.Course
	err := c.getPages(ctx, first, func(body []byte) error {
		var page []canvas.Course
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode courses: %w", err)
		}
		for _, course := range page {
			if course.Active() {
				courses = append(courses, course)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	c.debug("listed active courses", "count", len(courses))
	return courses, nil
}

// GetCourse fetches a single course by id, for the allow-list path.
func (c *Client) GetCourse(ctx context.Context, id string) (canvas.Course, error) {
	body, _, err := c.get(ctx, c.baseURL+"/api/v1/courses/"+url.PathEscape(id))
	if err != nil {
		return canvas.Course{}, fmt.Errorf("get course %s: %w", id, err)
	}

	var course canvas.Course
	if err := json.Unmarshal(body, &course); err != nil {
		return canvas.Course{}, fmt.Errorf("decode course %s: %w", id, err)
	}
	return course, nil
}

// ListAssignments returns all assignments of a course with the user's
// own submission embedded.
func (c *Client) ListAssignments(ctx context.Context, courseID string) ([]canvas.Assignment, error) {
	query := url.Values{}
	query.Add("include[]", "submission")
	query.Set("per_page", strconv.Itoa(c.pageSize))
	first := c.baseURL + "/api/v1/courses/" + url.PathEscape(courseID) + "/assignments?" + query.Encode()

	var assignments []canvas.Assignment
	err := c.getPages(ctx, first, func(body []byte) error {
		var page []canvas.Assignment
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode assignments: %w", err)
		}
		assignments = append(assignments, page...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list assignments for course %s: %w", courseID, err)
	}

	c.debug("listed assignments", "course", courseID, "count", len(assignments))
	return assignments, nil
}

func (c *Client) getPages(ctx context.Context, first string, each func([]byte) error) error {
	pageURL := first
	for pageURL != "" {
		body, next, err := c.get(ctx, pageURL)
		if err != nil {
			return err
		}
		if err := each(body); err != nil {
			return err
		}
		pageURL = next
	}
	return nil
}

// get performs one GET with bounded exponential retry on throttling and
// server errors. Credential rejection is permanent and surfaces as
// canvas.ErrUnauthorized.
func (c *Client) get(ctx context.Context, pageURL string) ([]byte, string, error) {
	var (
		body []byte
		next string
	)

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("request canvas: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: %s", canvas.ErrUnauthorized, resp.Status))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("canvas returned %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("canvas returned %s", resp.Status))
		}

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		body = payload
		next = nextPageURL(resp)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, "", err
	}
	return body, next, nil
}

func nextPageURL(resp *http.Response) string {
	for rel, l := range link.ParseResponse(resp) {
		if rel == "next" && l != nil {
			return l.URI
		}
	}
	return ""
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"review-backend/internal/shared/telemetry"
)

const (
	acceptJSON = "application/vnd.github.v3+json"
	acceptDiff = "application/vnd.github.v3.diff"
)

// APIError describes a failed GitHub API call.
type APIError struct {
	Op     string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("github %s: status %d", e.Op, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("github %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("github %s failed", e.Op)
}

func (e *APIError) Unwrap() error { return e.Err }

// ChangedFile is one added or modified file in a pull request.
type ChangedFile struct {
	Path    string
	Content string
}

// PRContext is everything the review prompt needs about a pull request.
type PRContext struct {
	Title        string
	Description  string
	Diff         string
	ChangedFiles []ChangedFile
}

// Client calls the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a GitHub client. token is the default token used when a
// request does not carry its own.
func NewClient(baseURL, token string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.github.com"
	}
	timeout := 30 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GITHUB_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ParseRepoURL extracts owner and repo from an https://github.com/ URL.
func ParseRepoURL(repoURL string) (string, string, error) {
	const hostPrefix = "https://github.com/"
	if !strings.HasPrefix(repoURL, hostPrefix) {
		return "", "", fmt.Errorf("invalid GitHub URL format: %s", repoURL)
	}
	path := strings.Trim(strings.TrimPrefix(repoURL, hostPrefix), "/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GitHub URL format: %s", repoURL)
	}
	return parts[0], parts[1], nil
}

// GetPRContext fetches metadata, diff, and changed-file contents for a PR.
// tokenOverride takes precedence over the client's configured token.
func (c *Client) GetPRContext(ctx context.Context, repoURL string, prNumber int, tokenOverride string) (PRContext, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return PRContext{}, &APIError{Op: "parse repo url", Err: err}
	}

	token := strings.TrimSpace(tokenOverride)
	if token == "" {
		token = c.token
	}
	if token == "" {
		return PRContext{}, &APIError{Op: "auth", Err: fmt.Errorf("GitHub token is required but was not provided")}
	}

	prPath := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, prNumber)

	title, description, err := c.fetchPRMetadata(ctx, prPath, token)
	if err != nil {
		return PRContext{}, err
	}

	diff, err := c.fetchPRDiff(ctx, prPath, token)
	if err != nil {
		return PRContext{}, err
	}

	files, err := c.fetchChangedFiles(ctx, prPath+"/files", token)
	if err != nil {
		return PRContext{}, err
	}

	return PRContext{
		Title:        title,
		Description:  description,
		Diff:         diff,
		ChangedFiles: files,
	}, nil
}

func (c *Client) fetchPRMetadata(ctx context.Context, prURL, token string) (string, string, error) {
	body, err := c.get(ctx, "fetch pr metadata", prURL, token, acceptJSON)
	if err != nil {
		return "", "", err
	}

	var pr struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", "", &APIError{Op: "fetch pr metadata", Err: fmt.Errorf("decode response: %w", err)}
	}
	return pr.Title, pr.Body, nil
}

func (c *Client) fetchPRDiff(ctx context.Context, prURL, token string) (string, error) {
	body, err := c.get(ctx, "fetch pr diff", prURL, token, acceptDiff)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) fetchChangedFiles(ctx context.Context, filesURL, token string) ([]ChangedFile, error) {
	body, err := c.get(ctx, "fetch changed files", filesURL, token, acceptJSON)
	if err != nil {
		return nil, err
	}

	var entries []struct {
		Filename string `json:"filename"`
		Status   string `json:"status"`
		RawURL   string `json:"raw_url"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &APIError{Op: "fetch changed files", Err: fmt.Errorf("decode response: %w", err)}
	}

	changed := make([]ChangedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.Status != "added" && entry.Status != "modified" {
			continue
		}
		content, err := c.get(ctx, "fetch file content", entry.RawURL, token, "")
		if err != nil {
			// One unreadable file should not sink the whole review.
			telemetry.Error("github.file_content_failed", map[string]any{
				"file":  entry.Filename,
				"error": err.Error(),
			})
			continue
		}
		changed = append(changed, ChangedFile{
			Path:    entry.Filename,
			Content: string(content),
		})
	}
	return changed, nil
}

func (c *Client) get(ctx context.Context, op, url, token, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "token "+token)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: op, Status: resp.StatusCode}
	}
	return body, nil
}

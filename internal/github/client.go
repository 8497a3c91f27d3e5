// Package github is a minimal wrapper around GitHub's REST API v3.
// It is intentionally light—just the endpoints our services require.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/starseekers/starseekers/internal/models"
)

const defaultBaseURL = "https://api.github.com"

// ErrTokenExpired signals that GitHub rejected the user's access token.
// It is never retried; the caller must obtain a fresh token.
var ErrTokenExpired = errors.New("github token expired or unauthorized")

// PageProgress reports pagination progress after each fetched page.
type PageProgress struct {
	Page         int
	Fetched      int
	TotalFetched int
}

// ProgressFunc receives a PageProgress after every page, including the last.
type ProgressFunc func(PageProgress)

// Client talks to the GitHub REST API. Access tokens are per-user and passed
// per call rather than held by the client.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient returns a ready-to-use GitHub API client.
func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

// starredRepo mirrors the wire shape of GET /user/starred entries.
type starredRepo struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"full_name"`
	Description *string  `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Language    *string  `json:"language"`
	Topics      []string `json:"topics"`
	UpdatedAt   string   `json:"updated_at"`
}

// user mirrors the wire shape of GET /user.
type user struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// FetchStarred pages through the authenticated user's starred repositories.
//
//	perPage  – items per page (1–100)
//	maxPages – 0 means fetch until a page shorter than perPage signals exhaustion
//	onPage   – optional; invoked after every page with running totals
//
// Pages are fetched sequentially because each request depends on the previous
// page number. A 401 surfaces as ErrTokenExpired; any other non-2xx response
// fails with the provider's status text.
func (c *Client) FetchStarred(ctx context.Context, accessToken string, perPage, maxPages int, onPage ProgressFunc) ([]models.StarredRepo, error) {
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}

	var repos []models.StarredRepo
	for page := 1; maxPages == 0 || page <= maxPages; page++ {
		u := fmt.Sprintf("%s/user/starred?per_page=%d&page=%d", c.baseURL, perPage, page)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		c.addHeaders(req, accessToken)

		var payload []starredRepo
		if err := c.do(req, &payload); err != nil {
			return nil, err
		}

		for _, r := range payload {
			repos = append(repos, toStarredRepo(r))
		}

		if onPage != nil {
			onPage(PageProgress{Page: page, Fetched: len(payload), TotalFetched: len(repos)})
		}

		// A short page is the cursor-less exhaustion signal.
		if len(payload) < perPage {
			break
		}
	}

	return repos, nil
}

// GetAuthenticatedUser resolves the token owner's numeric ID and login.
func (c *Client) GetAuthenticatedUser(ctx context.Context, accessToken string) (int64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return 0, "", err
	}
	c.addHeaders(req, accessToken)

	var u user
	if err := c.do(req, &u); err != nil {
		return 0, "", err
	}
	return u.ID, u.Login, nil
}

func toStarredRepo(r starredRepo) models.StarredRepo {
	repo := models.StarredRepo{
		ID:          r.ID,
		FullName:    r.FullName,
		Description: models.NoDescription,
		HTMLURL:     r.HTMLURL,
		Topics:      r.Topics,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Description != nil && *r.Description != "" {
		repo.Description = *r.Description
	}
	if r.Language != nil {
		repo.Language = *r.Language
	}
	if repo.Topics == nil {
		repo.Topics = []string{}
	}
	return repo
}

// addHeaders sets authentication and Accept headers.
func (c *Client) addHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	req.Header.Set("User-Agent", "starseekers-api")
}

// do executes the HTTP request and decodes JSON into v.
func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrTokenExpired
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("github: request failed: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kutbudev/taggable/pkg/models"
)

// Client talks to a running taggable server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/") + "/v1",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) makeRequest(method, endpoint string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
		}
		return &StatusError{Code: resp.StatusCode, Message: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Code, e.Message)
}

func (c *Client) ListTags() ([]models.Tag, error) {
	var tags []models.Tag
	err := c.makeRequest(http.MethodGet, "/tags", nil, &tags)
	return tags, err
}

func (c *Client) RenameTag(id, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := c.makeRequest(http.MethodPut, "/tags/"+url.PathEscape(id), RenameTagInput{Name: name}, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *Client) CreateItem(typ, title, tagsList string) (*ItemView, error) {
	var item ItemView
	err := c.makeRequest(http.MethodPost, "/"+url.PathEscape(typ), CreateItemInput{Title: title, TagsList: tagsList}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) GetItem(typ, id string) (*ItemView, error) {
	return c.itemRequest(http.MethodGet, itemPath(typ, id)+"/tags", nil)
}

func (c *Client) Tag(typ, id string, names ...string) (*ItemView, error) {
	return c.itemRequest(http.MethodPost, itemPath(typ, id)+"/tags", TagsInput{Tags: names})
}

func (c *Client) Untag(typ, id string, names ...string) (*ItemView, error) {
	endpoint := itemPath(typ, id) + "/tags"
	if len(names) > 0 {
		endpoint += "?" + url.Values{"tag": names}.Encode()
	}
	return c.itemRequest(http.MethodDelete, endpoint, nil)
}

func (c *Client) SetTagsList(typ, id, list string) (*ItemView, error) {
	return c.itemRequest(http.MethodPut, itemPath(typ, id)+"/tags_list", TagsListInput{TagsList: list})
}

func (c *Client) Attribute(typ, id, user string, names ...string) (*ItemView, error) {
	return c.itemRequest(http.MethodPost, itemPath(typ, id)+"/attribute", AttributeInput{User: user, Tags: names})
}

func (c *Client) Tagged(typ, tag string) ([]ItemView, error) {
	var items []ItemView
	err := c.makeRequest(http.MethodGet, "/"+url.PathEscape(typ)+"/tagged/"+url.PathEscape(tag), nil, &items)
	return items, err
}

func (c *Client) itemRequest(method, endpoint string, body any) (*ItemView, error) {
	var item ItemView
	if err := c.makeRequest(method, endpoint, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func itemPath(typ, id string) string {
	return "/" + url.PathEscape(typ) + "/" + url.PathEscape(id)
}

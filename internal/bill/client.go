package bill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// StatusError is a non-2xx answer from the bills API. Its message always
// embeds the status code ("Erreur 404"), which is what error pages key on.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Erreur %d", e.Code)
	}
	return fmt.Sprintf("Erreur %d: %s", e.Code, e.Message)
}

// Client talks to a remote bills API
type Client struct {
	baseURL    string
	basicAuth  BasicAuth
	httpClient *http.Client
}

// NewClient creates a Client for the API rooted at baseURL
func NewClient(baseURL string, basicAuth BasicAuth) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		basicAuth: basicAuth,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// List fetches every bill
func (c *Client) List(ctx context.Context) ([]Bill, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/bills", nil)
	if err != nil {
		return nil, err
	}

	var bills []Bill
	if err := c.do(req, &bills); err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []Bill{}
	}
	return bills, nil
}

// Create uploads the receipt and reserves a bill
func (c *Client) Create(ctx context.Context, create CreateRequest) (*CreateResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(create.File.Name)))
	header.Set("Content-Type", create.File.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(create.File.Data); err != nil {
		return nil, fmt.Errorf("writing file part: %w", err)
	}
	if err := writer.WriteField("email", create.Email); err != nil {
		return nil, fmt.Errorf("writing email field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/bills", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result CreateResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update sends the completed bill for the record named by the selector
func (c *Client) Update(ctx context.Context, update UpdateRequest) (*Bill, error) {
	data, err := json.Marshal(update.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling bill: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/api/bills/"+url.PathEscape(update.Selector), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var bill Bill
	if err := c.do(req, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.basicAuth.enabled() {
		req.SetBasicAuth(c.basicAuth.Username, c.basicAuth.Password)
	}
	return req, nil
}

// do sends the request and decodes a 2xx JSON body into out
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling bills API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorMessage reads {"error": "..."} bodies, falling back to plain text
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

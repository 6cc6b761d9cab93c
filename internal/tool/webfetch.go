package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

const webfetchDescription = `Fetches content from a URL and returns it in the requested format.

Usage:
- The URL must be http or https; private, loopback and metadata hosts are blocked
- format is "markdown", "text" or "html"
- Optional timeout is in seconds (default 30, max 120)
- Large responses are truncated`

const maxResponseSize = 5 * 1024 * 1024

// WebFetchTool fetches web content under the sandbox URL policy.
type WebFetchTool struct {
	policy *sandbox.Policy
	client *http.Client
}

// WebFetchInput is the input for the webfetch tool.
type WebFetchInput struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Timeout int    `json:"timeout,omitempty"`
}

// NewWebFetchTool creates a webfetch tool bound to a sandbox policy.
func NewWebFetchTool(policy *sandbox.Policy) *WebFetchTool {
	return &WebFetchTool{
		policy: policy,
		client: &http.Client{
			// Redirects are re-screened so a public host cannot bounce the
			// request to a private one.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				_, err := policy.CheckURL(req.URL.String())
				return err
			},
		},
	}
}

func (t *WebFetchTool) ID() string          { return "webfetch" }
func (t *WebFetchTool) Description() string { return webfetchDescription }

func (t *WebFetchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {
				"type": "string",
				"description": "The URL to fetch content from"
			},
			"format": {
				"type": "string",
				"enum": ["text", "markdown", "html"],
				"description": "The format to return the content in"
			},
			"timeout": {
				"type": "integer",
				"description": "Optional timeout in seconds (max 120)"
			}
		},
		"required": ["url", "format"]
	}`)
}

func (t *WebFetchTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params WebFetchInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if params.Format != "text" && params.Format != "markdown" && params.Format != "html" {
		return nil, fmt.Errorf("format must be 'text', 'markdown', or 'html'")
	}

	if _, err := t.policy.CheckURL(params.URL); err != nil {
		return nil, err
	}

	timeout := sandbox.DefaultWebFetchTimeout
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Second
		if timeout > sandbox.MaxWebFetchTimeout {
			timeout = sandbox.MaxWebFetchTimeout
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, params.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	switch params.Format {
	case "markdown":
		req.Header.Set("Accept", "text/markdown;q=1.0, text/plain;q=0.8, text/html;q=0.7, */*;q=0.1")
	case "text":
		req.Header.Set("Accept", "text/plain;q=1.0, text/markdown;q=0.9, text/html;q=0.8, */*;q=0.1")
	default:
		req.Header.Set("Accept", "text/html;q=1.0, application/xhtml+xml;q=0.9, text/plain;q=0.8, */*;q=0.1")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if blocked := unwrapBlocked(err); blocked != nil {
			return nil, blocked
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}
	if resp.ContentLength > maxResponseSize {
		return nil, fmt.Errorf("response too large (exceeds 5MB limit)")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("response too large (exceeds 5MB limit)")
	}

	content := string(body)
	contentType := resp.Header.Get("Content-Type")
	isHTML := strings.Contains(contentType, "text/html")

	var output string
	switch {
	case params.Format == "markdown" && isHTML:
		output, err = htmlToMarkdown(content)
		if err != nil {
			return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
		}
	case params.Format == "text" && isHTML:
		output, err = htmlToText(content)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from HTML: %w", err)
		}
	default:
		output = content
	}

	return &Result{
		Title:  params.URL,
		Output: output,
		Metadata: map[string]any{
			"url":         params.URL,
			"contentType": contentType,
			"bytes":       len(body),
		},
	}, nil
}

// unwrapBlocked digs a sandbox block out of the url.Error the client wraps
// redirect-check failures in.
func unwrapBlocked(err error) error {
	for err != nil {
		if sandbox.IsBlocked(err) {
			return err
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

// htmlToText strips markup and non-content elements from an HTML document.
func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, iframe, object, embed").Remove()
	return strings.TrimSpace(doc.Text()), nil
}

// htmlToMarkdown converts an HTML document to markdown.
func htmlToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		HorizontalRule:   "---",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		EmDelimiter:      "*",
	})
	converter.Remove("script", "style", "meta", "link")
	return converter.ConvertString(html)
}

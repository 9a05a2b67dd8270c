// Package ocr calls an external OCR service that accepts a base64-encoded
// document and returns per-page markdown. The pages are reassembled into a
// single page-marked markdown string for the splitter.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmorales/normrag/internal/retry"
)

const maxErrorBody = 4 * 1024

// Client talks to an OCR endpoint speaking the Mistral OCR protocol.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

type ocrPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// Extract OCRs a document and returns page-marked markdown plus the page
// count. The filename is only used to pick a MIME type for the data URL.
func (c *Client) Extract(ctx context.Context, data []byte, filename string) (string, int, error) {
	reqBody := ocrRequest{
		Model: c.model,
		Document: ocrDocument{
			Type:        "document_url",
			DocumentURL: dataURL(data, filename),
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ocr", bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if retry.TransientStatus(resp.StatusCode) {
			return "", 0, &retry.TransientError{StatusCode: resp.StatusCode, Message: msg}
		}
		return "", 0, fmt.Errorf("ocr service returned %d: %s", resp.StatusCode, msg)
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("decode ocr response: %w", err)
	}
	if len(out.Pages) == 0 {
		return "", 0, fmt.Errorf("ocr service returned no pages")
	}
	return assemble(out.Pages), len(out.Pages), nil
}

// assemble joins OCR pages into a single markdown string with one marker
// per page. Page indexes are zero-based on the wire.
func assemble(pages []ocrPage) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n\n", p.Index+1)
		b.WriteString(strings.TrimSpace(p.Markdown))
	}
	return b.String()
}

func dataURL(data []byte, filename string) string {
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

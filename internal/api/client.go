package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"transcreva/internal/convert"
	"transcreva/internal/domain"
)

// StatusError reports a non-success HTTP response from the backend.
type StatusError struct {
	Op         string
	StatusCode int
}

// Error formats the failed operation and status code.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// Client talks to the transcription backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a backend client for the given base URL.
// The long timeout covers multi-megabyte audio uploads on slow links.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
		log: log,
	}
}

// ListPrompts fetches the ordered prompt template list.
func (c *Client) ListPrompts(ctx context.Context) ([]domain.Prompt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prompts", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "list prompts", StatusCode: resp.StatusCode}
	}

	var prompts []domain.Prompt
	if err := json.NewDecoder(resp.Body).Decode(&prompts); err != nil {
		return nil, fmt.Errorf("list prompts: decode response: %w", err)
	}

	c.log.Debug().Int("count", len(prompts)).Msg("prompts loaded")
	return prompts, nil
}

// UploadAudio sends the audio artifact as multipart field "file" and returns
// the media identifier assigned by the backend.
func (c *Client) UploadAudio(ctx context.Context, audio convert.Audio) (string, error) {
	data, err := os.ReadFile(audio.Path)
	if err != nil {
		return "", fmt.Errorf("upload audio: read artifact: %w", err)
	}

	body, contentType, err := encodeFileField("file", audio.Name, audio.MIMEType, data)
	if err != nil {
		return "", fmt.Errorf("upload audio: encode multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Op: "upload audio", StatusCode: resp.StatusCode}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("upload audio: decode response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("upload audio: response has no media id")
	}

	c.log.Debug().Str("videoId", result.ID).Msg("audio uploaded")
	return result.ID, nil
}

// StartTranscription asks the backend to transcribe uploaded media, optionally
// biased by prompt text. The response body is not consumed beyond success.
func (c *Client) StartTranscription(ctx context.Context, videoID, prompt string) error {
	payload := struct {
		Prompt string `json:"prompt,omitempty"`
	}{Prompt: prompt}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/videos/%s/transcription", c.baseURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("start transcription: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: "start transcription", StatusCode: resp.StatusCode}
	}

	c.log.Debug().Str("videoId", videoID).Msg("transcription requested")
	return nil
}

// encodeFileField builds a single-file multipart body with an explicit part
// Content-Type, returning the reader and the request Content-Type header.
func encodeFileField(fieldName, fileName, contentType string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		`form-data; name="`+escapeQuotes(fieldName)+`"; filename="`+escapeQuotes(fileName)+`"`)
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

// escapeQuotes replaces special characters in header values.
func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, b := range []byte(s) {
		if b == '"' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	return buf.String()
}

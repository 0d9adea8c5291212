package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
)

// send performs the request and returns the body of a 2xx response.
// Transport failures become *NetworkError, other statuses *ServerError.
func (c *Client) send(req *http.Request, op string) ([]byte, http.Header, error) {
	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &ServerError{Op: op, Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Op: op, Err: fmt.Errorf("could not read response body: %w", err)}
	}
	return body, resp.Header, nil
}

// doGetJSON performs a GET request and unmarshals the JSON response into the result type.
func doGetJSON[T any](ctx context.Context, c *Client, op, endpoint string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, _, err := c.send(req, op)
	if err != nil {
		return nil, err
	}
	c.captureResponse(endpoint, body)

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &result, nil
}

// doPostJSON performs a bodiless POST and unmarshals the JSON response.
func doPostJSON[T any](ctx context.Context, c *Client, op, endpoint string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, _, err := c.send(req, op)
	if err != nil {
		return nil, err
	}
	c.captureResponse(endpoint, body)

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &result, nil
}

// formField is a plain value part of a multipart request.
type formField struct {
	name  string
	value string
}

// doPostMultipart sends frames under fileField plus the given fields and returns
// the raw response body. With indexNames set, camera frames are named img0.jpg,
// img1.jpg, ... so the parts stay distinguishable on the server.
func (c *Client) doPostMultipart(ctx context.Context, op, endpoint, fileField string, frames []*capture.Frame, indexNames bool, fields ...formField) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for i, frame := range frames {
		name := frame.FileName
		if name == "" || (indexNames && name == capture.DefaultFileName) {
			name = fmt.Sprintf("img%d.jpg", i)
		}
		if err := addFrameToMultipart(writer, fileField, name, frame); err != nil {
			return nil, err
		}
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("could not write field %s: %w", f.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), &body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	respBody, _, err := c.send(req, op)
	if err != nil {
		return nil, err
	}
	c.captureResponse(endpoint, respBody)
	return respBody, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// addFrameToMultipart writes one frame as a file part carrying its own MIME type.
func addFrameToMultipart(writer *multipart.Writer, fieldName, fileName string, frame *capture.Frame) error {
	contentType := frame.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(fieldName), quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(frame.Data); err != nil {
		return fmt.Errorf("could not copy frame data: %w", err)
	}
	return nil
}

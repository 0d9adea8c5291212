package recognition

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
)

// DefaultReportFileName is used when the service does not name the report.
const DefaultReportFileName = "attendance_report.pdf"

// DownloadReport fetches the attendance report PDF.
func (c *Client) DownloadReport(ctx context.Context) (*Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL("attendance_report"), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")

	body, header, err := c.send(req, "download report")
	if err != nil {
		return nil, err
	}

	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	return &Report{
		FileName:    reportFileName(header.Get("Content-Disposition")),
		ContentType: contentType,
		Data:        body,
	}, nil
}

// reportFileName extracts a safe file name from a Content-Disposition header.
func reportFileName(disposition string) string {
	if disposition == "" {
		return DefaultReportFileName
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return DefaultReportFileName
	}
	name := filepath.Base(params["filename"])
	if name == "" || name == "." || name == "/" {
		return DefaultReportFileName
	}
	return name
}

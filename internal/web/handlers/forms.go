package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// enrollForm is the text part of an enrollment submission.
type enrollForm struct {
	StudentID string `schema:"student_id"`
}

// modalForm opens or closes the enrollment modal.
type modalForm struct {
	Action string `schema:"action"`
}

// listQuery selects how the attendance list is served.
type listQuery struct {
	// Cached serves the last fetched list without contacting the service.
	Cached bool `schema:"cached"`
}

func decodeForm(dst any, values url.Values) error {
	if err := formDecoder.Decode(dst, values); err != nil {
		return fmt.Errorf("decoding form: %w", err)
	}
	return nil
}

// errNoFiles is returned when a multipart form carries no image under the expected field.
var errNoFiles = errors.New("no files provided")

// parseUploadForm parses a multipart or urlencoded body.
func parseUploadForm(r *http.Request) error {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("failed to parse multipart form: %w", err)
	}
	return nil
}

// readFrames decodes the uploaded images under field into frames, in upload order.
func readFrames(r *http.Request, field string) ([]*capture.Frame, error) {
	if r.MultipartForm == nil {
		return nil, errNoFiles
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, errNoFiles
	}

	frames := make([]*capture.Frame, 0, len(files))
	for _, fileHeader := range files {
		frame, err := readFrame(fileHeader)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func readFrame(fileHeader *multipart.FileHeader) (*capture.Frame, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %s", fileHeader.Filename)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s", fileHeader.Filename)
	}
	return capture.FromUpload(fileHeader.Filename, data)
}

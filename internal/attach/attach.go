// Package attach ingests raw files into task attachments.
package attach

import (
	"encoding/base64"
	"fmt"
	"io"

	"taskboard/internal/model"
)

// MaxFileSize caps a single attachment payload.
const MaxFileSize = 10 << 20 // 10 MiB

// File is a raw file handle supplied by the boundary layer.
type File struct {
	Name     string
	MIMEType string
	Open     func() (io.ReadCloser, error)
}

// ReadAll converts files into attachments with data-URL payloads. One
// failing read aborts the whole batch; no partial attachment list is
// ever returned.
func ReadAll(files []File) ([]model.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}

	attachments := make([]model.Attachment, 0, len(files))
	for _, file := range files {
		attachment, err := read(file)
		if err != nil {
			return nil, fmt.Errorf("read attachment %q: %w", file.Name, err)
		}
		attachments = append(attachments, attachment)
	}
	return attachments, nil
}

func read(file File) (model.Attachment, error) {
	rc, err := file.Open()
	if err != nil {
		return model.Attachment{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxFileSize+1))
	if err != nil {
		return model.Attachment{}, err
	}
	if len(data) > MaxFileSize {
		return model.Attachment{}, fmt.Errorf("file exceeds %d bytes", MaxFileSize)
	}

	mime := file.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}

	return model.Attachment{
		Name:     file.Name,
		MIMEType: mime,
		Payload:  fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)),
	}, nil
}

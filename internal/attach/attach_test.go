package attach

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func stringFile(name, mime, content string) File {
	return File{
		Name:     name,
		MIMEType: mime,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func failingFile(name string) File {
	return File{
		Name:     name,
		MIMEType: "text/plain",
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("unreadable")
		},
	}
}

func TestReadAllEncodesDataURLs(t *testing.T) {
	attachments, err := ReadAll([]File{
		stringFile("hi.txt", "text/plain", "hi"),
		stringFile("blob", "", "x"),
	})
	if err != nil {
		t.Fatalf("readall: %v", err)
	}
	if len(attachments) != 2 {
		t.Fatalf("len = %d, want 2", len(attachments))
	}
	if attachments[0].Payload != "data:text/plain;base64,aGk=" {
		t.Errorf("payload = %q", attachments[0].Payload)
	}
	if attachments[1].MIMEType != "application/octet-stream" {
		t.Errorf("missing mime should default, got %q", attachments[1].MIMEType)
	}
	if !strings.HasPrefix(attachments[1].Payload, "data:application/octet-stream;base64,") {
		t.Errorf("payload = %q", attachments[1].Payload)
	}
}

func TestOneFailureAbortsTheBatch(t *testing.T) {
	attachments, err := ReadAll([]File{
		stringFile("ok.txt", "text/plain", "fine"),
		failingFile("bad.txt"),
		stringFile("never.txt", "text/plain", "unreached"),
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if attachments != nil {
		t.Error("no partial attachment list on failure")
	}
	if !strings.Contains(err.Error(), "bad.txt") {
		t.Errorf("error should name the failed file: %v", err)
	}
}

func TestEmptyBatch(t *testing.T) {
	attachments, err := ReadAll(nil)
	if err != nil || attachments != nil {
		t.Errorf("got %v, %v; want nil, nil", attachments, err)
	}
}

func TestOversizeFileRejected(t *testing.T) {
	huge := File{
		Name:     "huge.bin",
		MIMEType: "application/octet-stream",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(io.LimitReader(zeros{}, MaxFileSize+1)), nil
		},
	}
	if _, err := ReadAll([]File{huge}); err == nil {
		t.Fatal("oversize file should be rejected")
	}
}

type zeros struct{}

func (zeros) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

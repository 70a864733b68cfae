package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// Request describes one logical call. It is built per call and not retained.
//
// Body is JSON-encoded; Form is sent as multipart/form-data. Setting both is an error.
type Request struct {
	Method string // Defaults to GET
	Path   string // Relative to the client's base URL
	Body   any
	Form   *Form
	Header http.Header
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// encode buffers the body once so every attempt can resend it.
//
// contentType is only returned for multipart bodies.
func (r Request) encode() (payload []byte, contentType string, err error) {
	switch {
	case r.Body != nil && r.Form != nil:
		return nil, "", fmt.Errorf("request cannot carry both a JSON body and a form")
	case r.Form != nil:
		return r.Form.encode()
	case r.Body != nil:
		if raw, ok := r.Body.(json.RawMessage); ok {
			if !json.Valid(raw) {
				return nil, "", fmt.Errorf("body is not valid JSON")
			}
			return raw, "", nil
		}
		payload, err = json.Marshal(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal body: %w", err)
		}
		return payload, "", nil
	default:
		return nil, "", nil
	}
}

// File is an in-memory upload.
type File struct {
	Name        string
	Content     []byte
	ContentType string // Detected from the extension when empty
}

// ReadFile loads the file at path into a [File] named after its base name.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Content: data}, nil
}

// ReadFiles loads each path in order.
func ReadFiles(paths ...string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

type formPart struct {
	field string
	value string
	file  *File
}

// Form is an ordered multipart/form-data payload.
type Form struct {
	parts []formPart
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// AddField appends a plain text field.
func (f *Form) AddField(name, value string) *Form {
	f.parts = append(f.parts, formPart{field: name, value: value})
	return f
}

// AddFile appends a file part under field.
func (f *Form) AddFile(field string, file File) *Form {
	f.parts = append(f.parts, formPart{field: field, file: &file})
	return f
}

// Len reports the number of parts.
func (f *Form) Len() int {
	return len(f.parts)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range f.parts {
		if p.file == nil {
			if err := w.WriteField(p.field, p.value); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", p.field, err)
			}
			continue
		}

		ct := p.file.ContentType
		if ct == "" {
			ct = mime.TypeByExtension(filepath.Ext(p.file.Name))
		}
		if ct == "" {
			ct = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(p.field), quoteEscaper.Replace(p.file.Name)))
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part for %s: %w", p.file.Name, err)
		}
		if _, err := part.Write(p.file.Content); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", p.file.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

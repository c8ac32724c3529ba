package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

// File is a multipart file part.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// BuildMultipartBody creates a multipart form data body. String values become
// plain form fields; File, []byte and io.Reader values become file parts.
func BuildMultipartBody(parts map[string]any) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var err error
		switch v := parts[name].(type) {
		case string:
			err = writer.WriteField(name, v)
		case File:
			err = writeFilePart(writer, name, v)
		case *File:
			err = writeFilePart(writer, name, *v)
		case []byte:
			err = writeFilePart(writer, name, File{Name: name, Content: bytes.NewReader(v)})
		case io.Reader:
			err = writeFilePart(writer, name, File{Name: name, Content: v})
		default:
			err = writer.WriteField(name, fmt.Sprint(v))
		}
		if err != nil {
			return nil, "", err
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, field string, f File) error {
	filename := f.Name
	if filename == "" {
		filename = field
	}

	var part io.Writer
	var err error
	if f.ContentType == "" {
		part, err = writer.CreateFormFile(field, filename)
	} else {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(field), escapeQuotes(filename)))
		h.Set("Content-Type", f.ContentType)
		part, err = writer.CreatePart(h)
	}
	if err != nil {
		return err
	}

	if f.Content == nil {
		return nil
	}
	_, err = io.Copy(part, f.Content)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

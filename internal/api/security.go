package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/FocuswithJustin/rtjson/core/rtjson"
	"github.com/FocuswithJustin/rtjson/internal/ingest"
	"github.com/FocuswithJustin/rtjson/internal/server"
)

// maxNameLength bounds document names supplied by clients.
const maxNameLength = 200

// readSource reads the request body, failing with a LimitError once more
// than limit bytes arrive. A non-positive limit disables the check.
func readSource(w http.ResponseWriter, r *http.Request, limit int) ([]byte, error) {
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, int64(limit))
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errors.NewLimit("input bytes", limit)
		}
		return nil, errors.NewIO("read request body", r.URL.Path, err)
	}
	return data, nil
}

// requestFormat picks the input format from the format query parameter,
// then the Content-Type header, then the body itself.
func requestFormat(r *http.Request, data []byte) (ingest.Format, error) {
	if name := r.URL.Query().Get("format"); name != "" {
		return ingest.ParseFormat(name)
	}

	contentType := r.Header.Get("Content-Type")
	if !server.ValidateContentType(contentType, server.SourceContentTypes) {
		return "", errors.NewUnsupported("content type", contentType)
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch strings.ToLower(mediaType) {
	case "text/markdown", "text/x-markdown":
		return ingest.FormatMarkdown, nil
	case "application/xml", "text/xml":
		return ingest.FormatXML, nil
	case "application/x-sexpr":
		return ingest.FormatSexpr, nil
	}
	return ingest.Sniff(data), nil
}

// requestOptions applies boolean query overrides to the configured
// encoder options.
func requestOptions(r *http.Request, base rtjson.Options) (rtjson.Options, error) {
	opts := base
	q := r.URL.Query()
	for _, o := range []struct {
		key string
		dst *bool
	}{
		{"hard_breaks", &opts.HardBreaks},
		{"tag_filter", &opts.TagFilter},
		{"split_code_lines", &opts.SplitCodeLines},
	} {
		raw := q.Get(o.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return rtjson.Options{}, errors.NewValidation(o.key, "must be true or false")
		}
		*o.dst = v
	}
	return opts, nil
}

// validateName rejects empty, oversized or control-character names.
func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewValidation("name", "is required")
	}
	if len(name) > maxNameLength {
		return errors.NewValidation("name", "must be at most "+strconv.Itoa(maxNameLength)+" bytes")
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return errors.NewValidation("name", "must not contain control characters")
	}
	return nil
}

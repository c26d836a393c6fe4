package llm

import (
	"encoding/base64"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackImageMIME = "image/jpeg"

// EncodeImage turns an attachment value into a wire-ready image URL. Remote
// URLs pass through unchanged; local paths and readable handles are read and
// encoded as base64 data URIs with a sniffed MIME type.
func EncodeImage(v any) (string, error) {
	kind, err := Classify(v)
	if err != nil {
		return "", err
	}

	switch kind {
	case KindURL:
		return v.(string), nil
	case KindFilePath:
		data, err := readPath(v.(string))
		if err != nil {
			return "", err
		}
		return dataURI(imageMIME(v.(string), data), data), nil
	default: // KindFileLike
		r := v.(io.Reader)
		data, err := readAll(r)
		if err != nil {
			return "", err
		}
		// The handle may be reused by the caller afterward.
		rewind(r)
		return dataURI(imageMIME(readerName(r), data), data), nil
	}
}

// EncodeFile turns an attachment value into a file or text content part.
// PDFs become file parts carrying a data URI; anything that decodes as UTF-8
// becomes a text part; other binary content is rejected.
func EncodeFile(v any) (ContentPart, error) {
	kind, err := Classify(v)
	if err != nil {
		return ContentPart{}, err
	}

	var (
		data     []byte
		filename string
	)
	switch kind {
	case KindURL:
		raw := v.(string)
		u, _ := url.Parse(raw)
		name := path.Base(u.Path)
		if name == "." || name == "/" {
			// Bare-host URL; the wire part still needs a filename.
			name = "file"
		}
		return ContentPart{Kind: PartFile, Filename: name, FileData: raw}, nil
	case KindFilePath:
		filename = filepath.Base(v.(string))
		data, err = readPath(v.(string))
		if err != nil {
			return ContentPart{}, err
		}
	default: // KindFileLike
		r := v.(io.Reader)
		filename = readerName(r)
		if filename == "" {
			return ContentPart{}, NewClassificationError(
				"file-like value has no resolvable filename (expected an OriginalFilename or Name method)")
		}
		data, err = readAll(r)
		if err != nil {
			return ContentPart{}, err
		}
		rewind(r)
	}

	if isPDF(filename, data) {
		return ContentPart{
			Kind:     PartFile,
			Filename: filename,
			FileData: dataURI("application/pdf", data),
		}, nil
	}
	if utf8.Valid(data) {
		return ContentPart{Kind: PartText, Text: string(data)}, nil
	}
	return ContentPart{}, NewClassificationError(
		"unsupported file content in %q: only PDF and text files are supported", filename)
}

func isPDF(filename string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return mimetype.Detect(data).Is("application/pdf")
}

// imageMIME resolves an image MIME type from the filename extension first,
// then content sniffing, defaulting to JPEG when neither is conclusive.
func imageMIME(filename string, data []byte) string {
	if m := extensionMIME(filename); m != "" {
		return m
	}
	detected := mimetype.Detect(data)
	if strings.HasPrefix(detected.String(), "image/") {
		return detected.String()
	}
	return fallbackImageMIME
}

func extensionMIME(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	default:
		return ""
	}
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func readerName(r io.Reader) string {
	if n, ok := r.(OriginalNamer); ok && n.OriginalFilename() != "" {
		return n.OriginalFilename()
	}
	if n, ok := r.(Namer); ok && n.Name() != "" {
		return filepath.Base(n.Name())
	}
	return ""
}

func rewind(r io.Reader) {
	if s, ok := r.(io.Seeker); ok {
		s.Seek(0, io.SeekStart) //nolint:errcheck // best effort
	}
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewClassificationError("failed to read file-like value: %v", err)
	}
	return data, nil
}

func readPath(p string) ([]byte, error) {
	data, err := os.ReadFile(p) //nolint:gosec // G304: user-supplied attachment path is intentional
	if err != nil {
		return nil, NewClassificationError("failed to read file %q: %v", p, err)
	}
	return data, nil
}

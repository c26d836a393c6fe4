package llm

import (
	"io"
	"net/url"
	"os"
)

// InputKind is the classification of a user-supplied attachment value.
type InputKind string

const (
	KindURL      InputKind = "url"
	KindFilePath InputKind = "file_path"
	KindFileLike InputKind = "file_like"
)

// OriginalNamer is implemented by upload-style handles that carry the name
// the file had on the client that submitted it.
type OriginalNamer interface {
	OriginalFilename() string
}

// Namer is implemented by handles that know their path. *os.File satisfies it.
type Namer interface {
	Name() string
}

// Classify inspects a user-supplied attachment value and decides how it
// should be encoded. Strings are tried as http(s) URLs first, then as
// existing filesystem paths. Non-strings must expose a Read method.
// Anything else is a ClassificationError.
func Classify(v any) (InputKind, error) {
	switch obj := v.(type) {
	case string:
		if u, err := url.Parse(obj); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			return KindURL, nil
		}
		if _, err := os.Stat(obj); err == nil {
			return KindFilePath, nil
		}
		return "", NewClassificationError(
			"string is neither a valid URL (must start with http:// or https://) nor an existing file path on disk: %q", obj)
	case io.Reader:
		return KindFileLike, nil
	default:
		return "", NewClassificationError(
			"value is neither a string nor file-like (missing Read method): %T", v)
	}
}

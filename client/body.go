package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
)

// Kind names a request body encoding.
type Kind string

// Supported body kinds.
const (
	KindJSON Kind = "json"
	KindForm Kind = "form"
	KindText Kind = "text"
	KindBlob Kind = "blob"
)

// Media types sent as Content-Type for each kind.
const (
	MediaJSON = "application/json"
	MediaForm = "application/x-www-form-urlencoded"
	MediaText = "text/plain"
	MediaBlob = "application/octet-stream"
)

// Body is a request payload. The set of implementations is closed:
// JSONBody, FormBody, TextBody and BlobBody.
type Body interface {
	// Kind returns the body's encoding.
	Kind() Kind

	// ContentType returns the Content-Type header value.
	ContentType() string

	encode() ([]byte, error)
}

// JSONBody is serialized with encoding/json.
type JSONBody struct{ Data any }

// FormBody is URL-encoded as key/value pairs.
type FormBody struct{ Values url.Values }

// TextBody is sent verbatim as UTF-8 text.
type TextBody struct{ Text string }

// BlobBody is sent as raw bytes.
type BlobBody struct{ Data []byte }

// JSON wraps v as a JSON body.
func JSON(v any) Body { return JSONBody{Data: v} }

// Form wraps values as a form body.
func Form(values url.Values) Body { return FormBody{Values: values} }

// Text wraps s as a text body.
func Text(s string) Body { return TextBody{Text: s} }

// Blob wraps b as a binary body.
func Blob(b []byte) Body { return BlobBody{Data: b} }

func (JSONBody) Kind() Kind { return KindJSON }
func (FormBody) Kind() Kind { return KindForm }
func (TextBody) Kind() Kind { return KindText }
func (BlobBody) Kind() Kind { return KindBlob }

func (JSONBody) ContentType() string { return MediaJSON }
func (FormBody) ContentType() string { return MediaForm }
func (TextBody) ContentType() string { return MediaText }
func (BlobBody) ContentType() string { return MediaBlob }

func (b JSONBody) encode() ([]byte, error) {
	data, err := json.Marshal(b.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return data, nil
}

func (b FormBody) encode() ([]byte, error) { return []byte(b.Values.Encode()), nil }
func (b TextBody) encode() ([]byte, error) { return []byte(b.Text), nil }
func (b BlobBody) encode() ([]byte, error) { return b.Data, nil }

// NewBody builds a body from a kind name and loosely typed data, for callers
// that pick the encoding at runtime.
//
// Form data may be url.Values, map[string]string, map[string][]string or
// map[string]any. Text data is formatted with fmt.Sprint. Blob data may be
// []byte or string. An unknown kind returns ErrUnsupportedContent.
func NewBody(kind string, data any) (Body, error) {
	switch Kind(kind) {
	case KindJSON:
		return JSONBody{Data: data}, nil
	case KindForm:
		values, err := formValues(data)
		if err != nil {
			return nil, err
		}
		return FormBody{Values: values}, nil
	case KindText:
		if s, ok := data.(string); ok {
			return TextBody{Text: s}, nil
		}
		return TextBody{Text: fmt.Sprint(data)}, nil
	case KindBlob:
		switch v := data.(type) {
		case []byte:
			return BlobBody{Data: v}, nil
		case string:
			return BlobBody{Data: []byte(v)}, nil
		default:
			return nil, fmt.Errorf("%w: blob data must be []byte or string, got %T", ErrInvalidBody, data)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContent, kind)
	}
}

func formValues(data any) (url.Values, error) {
	switch v := data.(type) {
	case url.Values:
		return v, nil
	case map[string][]string:
		return url.Values(v), nil
	case map[string]string:
		values := make(url.Values, len(v))
		for k, s := range v {
			values.Set(k, s)
		}
		return values, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make(url.Values, len(v))
		for _, k := range keys {
			values.Set(k, fmt.Sprint(v[k]))
		}
		return values, nil
	case nil:
		return url.Values{}, nil
	default:
		return nil, fmt.Errorf("%w: form data must be key/value pairs, got %T", ErrInvalidBody, data)
	}
}

// encodeBody serializes b. A nil body is rejected.
func encodeBody(b Body) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil body", ErrUnsupportedContent)
	}
	if v := reflect.ValueOf(b); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, fmt.Errorf("%w: nil %T", ErrUnsupportedContent, b)
	}
	return b.encode()
}

var (
	_ Body = JSONBody{}
	_ Body = FormBody{}
	_ Body = TextBody{}
	_ Body = BlobBody{}
)

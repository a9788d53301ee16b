// Package errs holds the failure kinds shared by extraction, persistence and
// the callers that report them.
package errs

import "errors"

var (
	NoImageFound  = errors.New("no image found in response")
	InvalidFormat = errors.New("invalid image data url")
	DecodeFailed  = errors.New("decode image base64 payload")
	WriteFailed   = errors.New("write image file")
)

type Kind string

const (
	KindNone          Kind = ""
	KindNoImageFound  Kind = "no_image_found"
	KindInvalidFormat Kind = "invalid_format"
	KindDecodeFailed  Kind = "decode_failed"
	KindWriteFailed   Kind = "write_failed"
	KindUnknown       Kind = "unknown"
)

func (k Kind) String() string {
	return string(k)
}

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, NoImageFound):
		return KindNoImageFound
	case errors.Is(err, InvalidFormat):
		return KindInvalidFormat
	case errors.Is(err, DecodeFailed):
		return KindDecodeFailed
	case errors.Is(err, WriteFailed):
		return KindWriteFailed
	default:
		return KindUnknown
	}
}

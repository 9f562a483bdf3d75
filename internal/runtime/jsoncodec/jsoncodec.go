// Package jsoncodec renders human-facing JSON (CLI summaries, debug dumps).
// Wire messages never go through it; they use the protobuf codec.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

// api sorts map keys so repeated runs print identical output.
var api = sonic.Config{
	SortMapKeys:    true,
	ValidateString: true,
}.Froze()

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// EncodeIndent writes v to w as two-space indented JSON followed by a newline.
func EncodeIndent(w io.Writer, v any) error {
	enc := api.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

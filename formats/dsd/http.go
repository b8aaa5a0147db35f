package dsd

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	httpHeaderContentType = "Content-Type"
	httpHeaderAccept      = "Accept"
)

// DumpToHTTPResponse serializes the interface with the format requested by
// the Accept header, falling back to the given format, and writes it.
func DumpToHTTPResponse(w http.ResponseWriter, r *http.Request, t interface{}, fallbackFormat uint8) error {
	return DumpToHTTPResponseWithStatus(w, r, t, fallbackFormat, http.StatusOK)
}

// DumpToHTTPResponseWithStatus is like DumpToHTTPResponse, but also sets the status code.
func DumpToHTTPResponseWithStatus(w http.ResponseWriter, r *http.Request, t interface{}, fallbackFormat uint8, status int) error {
	// Get format from Accept header.
	format, ok := MimeTypeToFormat[extractMimeType(r.Header.Get(httpHeaderAccept))]
	if !ok {
		format = fallbackFormat
	}
	mimeType, ok := FormatToMimeType[format]
	if !ok {
		return ErrIncompatibleFormat
	}

	// Serialize data.
	data, err := DumpWithoutIdentifier(t, format)
	if err != nil {
		return fmt.Errorf("dsd: failed to serialize: %w", err)
	}

	// Write data to response
	w.Header().Set(httpHeaderContentType, mimeType)
	w.WriteHeader(status)
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("dsd: failed to write response: %w", err)
	}
	return nil
}

func extractMimeType(mimeType string) string {
	if strings.Contains(mimeType, ",") {
		mimeType, _, _ = strings.Cut(mimeType, ",")
	}
	if strings.Contains(mimeType, ";") {
		mimeType, _, _ = strings.Cut(mimeType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// Format and MimeType mappings.
var (
	FormatToMimeType = map[uint8]string{
		JSON:    "application/json; charset=utf-8",
		CBOR:    "application/cbor",
		MsgPack: "application/msgpack",
	}
	MimeTypeToFormat = map[string]uint8{
		"application/json":      JSON,
		"application/cbor":      CBOR,
		"application/msgpack":   MsgPack,
		"application/x-msgpack": MsgPack,
	}
)

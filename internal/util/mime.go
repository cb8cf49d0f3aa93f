package util

import "net/http"

const defaultContentType = "application/octet-stream"

// DetectContentType sniffs a content type from the leading bytes. Used when
// the caller uploads content without declaring a type.
func DetectContentType(data []byte) string {
	if len(data) == 0 {
		return defaultContentType
	}

	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}

	return http.DetectContentType(sample)
}

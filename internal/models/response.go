// Package models defines the request and response bodies of the parsing API.
package models

// ParseResponse is the result of parsing one file. Content is "" when
// extraction degraded; Metadata always carries size_bytes.
type ParseResponse struct {
	Filename string         `json:"filename"`
	FileType string         `json:"filetype"`
	Metadata map[string]any `json:"metadata"`
	Content  string         `json:"content"`
}

// CaptionResponse is returned by the captioning endpoint.
type CaptionResponse struct {
	Filename string `json:"filename"`
	Caption  string `json:"caption"`
}

// MessageResponse is a plain status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ParseResult pairs a source path with its parse response, for batch parsing.
type ParseResult struct {
	Path     string         `json:"path"`
	Response *ParseResponse `json:"response,omitempty"`
	Error    string         `json:"error,omitempty"`
}

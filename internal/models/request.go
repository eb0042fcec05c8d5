package models

import (
	"fmt"
	"strings"
)

// ParsePathRequest asks the server to parse a file already on its filesystem.
type ParsePathRequest struct {
	FilePath string `json:"filepath"`
}

// Validate trims the path and rejects an empty one.
func (r *ParsePathRequest) Validate() error {
	r.FilePath = strings.TrimSpace(r.FilePath)
	if r.FilePath == "" {
		return fmt.Errorf("filepath cannot be empty")
	}
	return nil
}

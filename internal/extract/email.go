package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/jhillyerd/enmime"
)

// emlExtractor renders RFC 822 messages as headers plus plain-text body.
type emlExtractor struct{}

func (emlExtractor) Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open EML: %w", err)
	}
	defer f.Close()

	env, err := enmime.ReadEnvelope(f)
	if err != nil {
		return "", fmt.Errorf("parse EML: %w", err)
	}
	return formatMessage(
		env.GetHeader("Subject"),
		env.GetHeader("From"),
		env.GetHeader("To"),
		emlBody(env.Root),
	), nil
}

// emlBody concatenates every text/plain part in message order. Single-part
// messages yield their decoded content whatever the type.
func emlBody(root *enmime.Part) string {
	if root == nil {
		return ""
	}
	if !strings.HasPrefix(root.ContentType, "multipart/") {
		return string(root.Content)
	}
	var b strings.Builder
	var walk func(p *enmime.Part)
	walk = func(p *enmime.Part) {
		for ; p != nil; p = p.NextSibling {
			if p.ContentType == "text/plain" {
				b.Write(p.Content)
			}
			walk(p.FirstChild)
		}
	}
	walk(root.FirstChild)
	return b.String()
}

// formatMessage is the shared text layout for .eml and .msg messages.
func formatMessage(subject, from, to, body string) string {
	return fmt.Sprintf("Subject: %s\nFrom: %s\nTo: %s\n\n%s", subject, from, to, body)
}

package extract

import (
	"encoding/binary"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

// MAPI property tags read from the top-level storage of an Outlook .msg file.
const (
	msgPropSubject          = "0037"
	msgPropTransportHeaders = "007D"
	msgPropSenderName       = "0C1A"
	msgPropSenderEmail      = "0C1F"
	msgPropDisplayTo        = "0E04"
	msgPropBody             = "1000"

	msgStreamPrefix = "__substg1.0_"
	msgTypeUnicode  = "001F"
	msgTypeString8  = "001E"
)

// msgExtractor reads Outlook messages stored as compound files.
type msgExtractor struct{}

func (msgExtractor) Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open MSG: %w", err)
	}
	defer f.Close()

	props, err := readMsgProperties(f)
	if err != nil {
		return "", err
	}
	from, to := msgAddresses(props)
	return formatMessage(props[msgPropSubject], from, to, props[msgPropBody]), nil
}

// readMsgProperties returns the top-level string properties keyed by tag.
// Recipient, attachment and named-property storages are skipped.
func readMsgProperties(r io.ReaderAt) (map[string]string, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, fmt.Errorf("parse MSG: %w", err)
	}
	props := make(map[string]string)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if !msgTopLevel(entry.Path) || !strings.HasPrefix(entry.Name, msgStreamPrefix) {
			continue
		}
		id := strings.TrimPrefix(entry.Name, msgStreamPrefix)
		if len(id) != 8 {
			continue
		}
		tag, typ := strings.ToUpper(id[:4]), strings.ToUpper(id[4:])
		if typ != msgTypeUnicode && typ != msgTypeString8 {
			continue
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("parse MSG: read %s: %w", entry.Name, err)
		}
		if _, seen := props[tag]; seen && typ == msgTypeString8 {
			continue
		}
		props[tag] = decodeMsgString(data, typ)
	}
	return props, nil
}

func msgTopLevel(path []string) bool {
	for _, p := range path {
		if strings.HasPrefix(p, "__") {
			return false
		}
	}
	return true
}

// decodeMsgString decodes a PT_UNICODE (UTF-16LE) or PT_STRING8 value and
// drops the trailing NULs some writers include.
func decodeMsgString(data []byte, typ string) string {
	if typ != msgTypeUnicode {
		return strings.TrimRight(string(data), "\x00")
	}
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return strings.TrimRight(string(utf16.Decode(units)), "\x00")
}

// msgAddresses prefers the From/To transport headers and falls back to the
// sender name/address and display-to properties.
func msgAddresses(props map[string]string) (from, to string) {
	if raw := props[msgPropTransportHeaders]; raw != "" {
		if m, err := mail.ReadMessage(strings.NewReader(strings.TrimRight(raw, "\r\n") + "\r\n\r\n")); err == nil {
			from = m.Header.Get("From")
			to = m.Header.Get("To")
		}
	}
	if from == "" {
		name, email := props[msgPropSenderName], props[msgPropSenderEmail]
		switch {
		case name != "" && email != "" && name != email:
			from = fmt.Sprintf("%s <%s>", name, email)
		case email != "":
			from = email
		default:
			from = name
		}
	}
	if to == "" {
		to = props[msgPropDisplayTo]
	}
	return from, to
}

package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmlExtractor_plain(t *testing.T) {
	msg := "Subject: EML Subject\r\n" +
		"From: sender@example.com\r\n" +
		"To: receiver@example.com\r\n" +
		"\r\n" +
		"This is an EML test body.\r\n"
	path := writeFile(t, "mail.eml", []byte(msg))

	got, err := emlExtractor{}.Extract(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Subject: EML Subject\nFrom: sender@example.com\nTo: receiver@example.com\n\n"), got)
	assert.Contains(t, got, "This is an EML test body.")
}

func TestEmlExtractor_multipartKeepsPlainParts(t *testing.T) {
	msg := "Subject: Multi\r\n" +
		"From: a@example.com\r\n" +
		"To: b@example.com\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"XYZ\"\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain body\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html body</p>\r\n" +
		"--XYZ--\r\n"
	path := writeFile(t, "multi.eml", []byte(msg))

	r := NewDefaultRegistry(Options{}, nil)
	got := r.Route(path, FormatEML)
	assert.Contains(t, got, "Subject: Multi\n")
	assert.Contains(t, got, "plain body")
	assert.NotContains(t, got, "html body")
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "Subject: s\nFrom: f\nTo: t\n\nbody", formatMessage("s", "f", "t", "body"))
	assert.Equal(t, "Subject: \nFrom: \nTo: \n\n", formatMessage("", "", "", ""))
}

func TestDecodeMsgString(t *testing.T) {
	utf16le := []byte{'H', 0, 'i', 0, 0xe9, 0, 0, 0}
	assert.Equal(t, "Hié", decodeMsgString(utf16le, msgTypeUnicode))
	assert.Equal(t, "plain", decodeMsgString([]byte("plain\x00"), msgTypeString8))
}

func TestMsgAddresses(t *testing.T) {
	from, to := msgAddresses(map[string]string{
		msgPropTransportHeaders: "Received: by mx\r\nFrom: Alice <alice@example.com>\r\nTo: bob@example.com\r\n",
		msgPropSenderName:       "ignored",
	})
	assert.Equal(t, "Alice <alice@example.com>", from)
	assert.Equal(t, "bob@example.com", to)

	from, to = msgAddresses(map[string]string{
		msgPropSenderName:  "Alice",
		msgPropSenderEmail: "alice@example.com",
		msgPropDisplayTo:   "Bob",
	})
	assert.Equal(t, "Alice <alice@example.com>", from)
	assert.Equal(t, "Bob", to)

	from, _ = msgAddresses(map[string]string{msgPropSenderEmail: "alice@example.com"})
	assert.Equal(t, "alice@example.com", from)

	from, to = msgAddresses(nil)
	assert.Empty(t, from)
	assert.Empty(t, to)
}

func TestMsgTopLevel(t *testing.T) {
	assert.True(t, msgTopLevel(nil))
	assert.True(t, msgTopLevel([]string{"Root Entry"}))
	assert.False(t, msgTopLevel([]string{"__recip_version1.0_#00000000"}))
	assert.False(t, msgTopLevel([]string{"__attach_version1.0_#00000000"}))
}

func TestMsgExtractor_notCompoundFile(t *testing.T) {
	path := writeFile(t, "bad.msg", []byte("not an OLE file"))
	_, err := msgExtractor{}.Extract(path)
	assert.Error(t, err)
}

func TestMsgExtractor_compoundFile(t *testing.T) {
	got, err := msgExtractor{}.Extract(filepath.Join("testdata", "message.msg"))
	require.NoError(t, err)
	assert.Equal(t, "Subject: Quarterly report\n"+
		"From: Alice Example <alice@example.com>\n"+
		"To: Bob Builder\n\n"+
		"Numbers attached.\r\nRegards", got)
}

func TestReadMsgProperties_topLevelUnicodePreferred(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "message.msg"))
	require.NoError(t, err)
	defer f.Close()

	props, err := readMsgProperties(f)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly report", props[msgPropSubject], "recipient storage must not override the subject")
	assert.Equal(t, "Numbers attached.\r\nRegards", props[msgPropBody])
	assert.NotContains(t, props, "3001")
}

func TestMsgExtractor_missingFields(t *testing.T) {
	got, err := msgExtractor{}.Extract(filepath.Join("testdata", "sparse.msg"))
	require.NoError(t, err)
	assert.Equal(t, "Subject: \nFrom: \nTo: \n\nBody only", got)
}

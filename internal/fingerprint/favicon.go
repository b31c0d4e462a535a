package fingerprint

import (
	"bytes"
	"encoding/base64"

	"github.com/spaolacci/murmur3"
)

// FaviconHash returns the Shodan-style favicon hash: murmur3-32 over the
// base64 encoding wrapped at 76 columns, every line newline-terminated.
func FaviconHash(data []byte) int32 {
	encoded := base64.StdEncoding.EncodeToString(data)

	var buf bytes.Buffer
	buf.Grow(len(encoded) + len(encoded)/76 + 1)
	for i, ch := range []byte(encoded) {
		buf.WriteByte(ch)
		if (i+1)%76 == 0 {
			buf.WriteByte('\n')
		}
	}
	if len(encoded)%76 != 0 {
		buf.WriteByte('\n')
	}

	hasher := murmur3.New32()
	_, _ = hasher.Write(buf.Bytes())
	return int32(hasher.Sum32())
}

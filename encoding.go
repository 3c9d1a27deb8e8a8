package mcat

import (
	"encoding/base64"
	"sync"
)

const chunkSize = 4096

var b64Pool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, chunkSize*4)
		return &buf
	},
}

// chunkedBase64 encodes data as base64 and splits the result into
// chunkSize-byte pieces. Every chunk but possibly the last is exactly
// chunkSize bytes, and the concatenation decodes back to data.
func chunkedBase64(data []byte) []string {
	encLen := base64.StdEncoding.EncodedLen(len(data))

	bufp := b64Pool.Get().(*[]byte)
	buf := *bufp
	if cap(buf) < encLen {
		buf = make([]byte, encLen)
	} else {
		buf = buf[:encLen]
	}
	base64.StdEncoding.Encode(buf, data)

	chunks := make([]string, 0, (encLen+chunkSize-1)/chunkSize)
	for off := 0; off < encLen; off += chunkSize {
		end := off + chunkSize
		if end > encLen {
			end = encLen
		}
		chunks = append(chunks, string(buf[off:end]))
	}

	*bufp = buf[:0]
	b64Pool.Put(bufp)
	return chunks
}

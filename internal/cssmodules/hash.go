package cssmodules

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const hashLen = 5

func shortHash(s string) string {
	h := strconv.FormatUint(xxhash.Sum64String(s), 16)
	for len(h) < 16 {
		h = "0" + h
	}
	return h[:hashLen]
}

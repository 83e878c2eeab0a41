package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var correlationSeq atomic.Uint64

// NewCorrelationID builds a tracing identifier of the form
// WF-<14-digit UTC timestamp>-<8 lowercase hex>-<3-digit sequence>.
// It is attached to every procedure invocation for log correlation and
// carries no correctness semantics.
func NewCorrelationID(now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// fall back to the sequence counter as entropy source
		binaryPut(buf, correlationSeq.Load())
	}
	seq := correlationSeq.Add(1) % 1000
	return fmt.Sprintf("WF-%s-%s-%03d",
		now.UTC().Format("20060102150405"),
		hex.EncodeToString(buf),
		seq,
	)
}

func binaryPut(buf []byte, v uint64) {
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
}

package util

import "testing"

// BenchmarkBufPool measures the allocation advantage of sync.Pool
// buffer reuse versus fresh allocation.
func BenchmarkBufPool(b *testing.B) {
	b.Run("pool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := GetBuf()
			_ = (*buf)[0]
			PutBuf(buf)
		}
	})
	b.Run("alloc", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := make([]byte, DefaultBufSize)
			_ = buf[0]
		}
	})
}

// BenchmarkDecodeLossy measures the UTF-8 repair path used on every
// received payload.
func BenchmarkDecodeLossy(b *testing.B) {
	payload := []byte("hello \xff\xfe world, plain ascii tail")
	for i := 0; i < b.N; i++ {
		_ = DecodeLossy(payload)
	}
}

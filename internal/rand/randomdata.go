// Package rand generates random payloads and ids, to stage synthetic units.
//
// This is not suitable for cryptographic use.
package rand

import (
	"io"
	"math/rand"
	"sync"
	"time"
)

// Bytes returns a random slice of bytes
func Bytes(n int) []byte {
	return randBytes(n)
}

// Between returns a random number in the [min, max] range
func Between(min, max int64) int64 {
	if max <= min {
		return min
	}
	onceSource.Do(seed)
	randMutex.Lock()
	defer randMutex.Unlock()
	return min + rgen.Int63n(max-min+1)
}

// Reader returns a stream of n random bytes
func Reader(n int64) io.Reader {
	return io.LimitReader(reader{}, n)
}

type reader struct{}

func (reader) Read(p []byte) (int, error) {
	onceSource.Do(seed)
	randMutex.Lock()
	defer randMutex.Unlock()
	return rgen.Read(p)
}

var (
	onceSource sync.Once
	rgen       *rand.Rand
	randMutex  sync.Mutex
)

func seed() {
	src := rand.NewSource(time.Now().UnixNano())
	rgen = rand.New(src) // #nosec
}

func randBytes(n int) []byte {
	onceSource.Do(seed)
	buf := make([]byte, n)
	randMutex.Lock()
	_, _ = rgen.Read(buf)
	randMutex.Unlock()
	return buf
}

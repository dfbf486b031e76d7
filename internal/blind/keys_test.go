// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blind_test

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/blind"
)

const testKeyBits = 2048

var (
	poolOnce sync.Once
	poolKeys []*rsa.PrivateKey
	poolErr  error
)

// testKeys returns a small set of pre-generated 2048-bit keys shared by the
// package's tests.
func testKeys(t *testing.T) []*rsa.PrivateKey {
	t.Helper()
	poolOnce.Do(func() {
		for range 4 {
			key, err := rsa.GenerateKey(rand.Reader, testKeyBits)
			if err != nil {
				poolErr = err
				return
			}
			poolKeys = append(poolKeys, key)
		}
	})
	require.NoError(t, poolErr)
	return poolKeys
}

// cyclingGenerator hands out the shared keys in turn and can be told to fail.
type cyclingGenerator struct {
	mu    sync.Mutex
	keys  []*rsa.PrivateKey
	next  int
	fails int
	calls int
}

func newCyclingGenerator(t *testing.T) *cyclingGenerator {
	return &cyclingGenerator{keys: testKeys(t)}
}

func (g *cyclingGenerator) Generate(int) (*rsa.PrivateKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fails > 0 {
		g.fails--
		return nil, errors.New("entropy exhausted")
	}
	key := g.keys[g.next%len(g.keys)]
	g.next++
	return key, nil
}

func (g *cyclingGenerator) failNext(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fails = n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testEpoch = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, retired int, options ...blind.KeyManagerOption) (*blind.KeyManager, *cyclingGenerator) {
	t.Helper()
	generator := newCyclingGenerator(t)
	options = append([]blind.KeyManagerOption{
		blind.WithGenerator(generator.Generate),
		blind.WithKeyClock(func() time.Time { return testEpoch }),
	}, options...)

	manager, err := blind.NewKeyManager(blind.KeyManagerConfig{
		Period:      24 * time.Hour,
		RetiredKeys: retired,
		Bits:        testKeyBits,
	}, discardLogger(), options...)
	require.NoError(t, err)
	return manager, generator
}

// Copyright 2026 the dbxmcp authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(2, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.AllowCall(), "call %d should be allowed", i)
	}
	assert.False(t, rl.AllowCall())
}

func TestRateLimiterMutationBucketIsSeparate(t *testing.T) {
	rl := NewRateLimiter(2, 100)

	assert.True(t, rl.AllowMutation())
	assert.True(t, rl.AllowMutation())
	assert.False(t, rl.AllowMutation())

	// Draining the mutation bucket leaves the call bucket intact.
	assert.True(t, rl.AllowCall())
}

func TestTokenBucketRefills(t *testing.T) {
	tb := &tokenBucket{
		tokens:     0,
		maxTokens:  10,
		refillRate: 1000, // fast refill to keep the test quick
		lastRefill: time.Now(),
	}

	assert.False(t, tb.take(1))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, tb.take(1))
}

func TestTokenBucketCapsAtMax(t *testing.T) {
	tb := &tokenBucket{
		tokens:     5,
		maxTokens:  5,
		refillRate: 1000,
		lastRefill: time.Now().Add(-time.Minute),
	}

	for i := 0; i < 5; i++ {
		assert.True(t, tb.take(1))
	}
	assert.False(t, tb.take(1))
}

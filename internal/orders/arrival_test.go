package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArrivalCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewArrivalCode()
		require.NoError(t, err)
		assert.Len(t, code, ArrivalCodeLen)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c), "char %q", c)
		}
		seen[code] = true
	}
	// 50 kode 6-char dari alfabet 31 hampir mustahil tabrakan semua
	assert.Greater(t, len(seen), 1)
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC)
	n, err := NewOrderNumber(now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(n, "ORD-20260830103000-"), n)
	assert.Len(t, n, len("ORD-20260830103000-")+4)
}

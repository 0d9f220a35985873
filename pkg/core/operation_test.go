package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationString(t *testing.T) {
	assert.Equal(t, "LIST_MARKETS", OpListMarkets.String())
	assert.Equal(t, "CREATE_ORDER", OpCreateOrder.String())
	assert.Equal(t, "CANCEL_REPLACE", OpCancelReplace.String())
	assert.Equal(t, "CREATE_WITHDRAWAL", OpCreateWithdrawal.String())
}

func TestOperationStringsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for op := OpListMarkets; op <= OpCreateWithdrawal; op++ {
		s := op.String()
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "duplicate name %q", s)
		seen[s] = true
	}
}

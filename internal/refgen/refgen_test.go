package refgen

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Format(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.Local)

	ref := New(PrefixDepositOut, now)
	require.Regexp(t, regexp.MustCompile(`^DEP-OUT-20260315-[0-9A-F]{6}$`), ref)

	require.Regexp(t, `^DEP-IN-20260315-`, New(PrefixDepositIn, now))
	require.Regexp(t, `^RET-20260315-`, New(PrefixReturn, now))
	require.Regexp(t, `^SAT-20260315-`, New(PrefixSale, now))
}

func TestNew_Distinct(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := New(PrefixSale, now)
		require.False(t, seen[ref], "tekrarlanan referans: %s", ref)
		seen[ref] = true
	}
}

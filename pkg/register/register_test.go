package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testKey struct{}

func TestResolveByType(t *testing.T) {
	var got []string
	RegisterFunc[*[]string](testKey{}, func(s *[]string) { *s = append(*s, "a") })
	RegisterFunc[int](testKey{}, func(int) { got = append(got, "wrong") })

	for _, h := range ResolveFuncHandlers[*[]string](testKey{}) {
		h(&got)
	}
	assert.Equal(t, []string{"a"}, got)
}

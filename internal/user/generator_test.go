// AngelaMos | 2026
// generator_test.go

package user

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

type takenNames map[string]bool

func (t takenNames) ExistsByAccountName(_ context.Context, name, _ string) (bool, error) {
	return t[name], nil
}

func sequence(names ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		name := names[i%len(names)]
		i++
		return name, nil
	}
}

func TestGenerateReturnsFirstFreeCandidate(t *testing.T) {
	g := NewAccountNameGenerator(5).WithSource(sequence("aaa", "bbb", "ccc"))

	name, err := g.Generate(context.Background(), takenNames{"aaa": true, "bbb": true})
	require.NoError(t, err)
	assert.Equal(t, "ccc", name)
}

func TestGenerateExhaustsAfterMaxAttempts(t *testing.T) {
	calls := 0
	g := NewAccountNameGenerator(3).WithSource(func() (string, error) {
		calls++
		return "taken", nil
	})

	_, err := g.Generate(context.Background(), takenNames{"taken": true})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrResourceExhausted)
	assert.Equal(t, 3, calls)
}

func TestGeneratePropagatesCheckerError(t *testing.T) {
	boom := errors.New("connection reset")
	g := NewAccountNameGenerator(3)

	_, err := g.Generate(context.Background(), checkerFunc(func(string) (bool, error) {
		return false, boom
	}))
	assert.ErrorIs(t, err, boom)
}

func TestNewAccountNameGeneratorDefaultsAttempts(t *testing.T) {
	assert.Equal(t, DefaultAccountNameAttempts, NewAccountNameGenerator(0).MaxAttempts())
	assert.Equal(t, 7, NewAccountNameGenerator(7).MaxAttempts())
}

func TestRandomAccountNameShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := range 200 {
		name, err := RandomAccountName()
		require.NoError(t, err)
		require.Regexp(t, "^[0-9a-f]{20}$", name)
		require.False(t, seen[name], fmt.Sprintf("repeat at %d", i))
		seen[name] = true
	}
}

type checkerFunc func(name string) (bool, error)

func (f checkerFunc) ExistsByAccountName(_ context.Context, name, _ string) (bool, error) {
	return f(name)
}

// AngelaMos | 2026
// generator.go

package user

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

const DefaultAccountNameAttempts = 5

type NameChecker interface {
	ExistsByAccountName(ctx context.Context, accountName, excludeID string) (bool, error)
}

// AccountNameGenerator proposes random account names and checks each one
// against the live scope. The check is only a fast path: two generators can
// still pick the same free candidate, and the unique index decides.
type AccountNameGenerator struct {
	source      func() (string, error)
	maxAttempts int
}

func NewAccountNameGenerator(maxAttempts int) *AccountNameGenerator {
	if maxAttempts < 1 {
		maxAttempts = DefaultAccountNameAttempts
	}
	return &AccountNameGenerator{
		source:      RandomAccountName,
		maxAttempts: maxAttempts,
	}
}

// WithSource replaces the candidate source.
func (g *AccountNameGenerator) WithSource(source func() (string, error)) *AccountNameGenerator {
	g.source = source
	return g
}

func (g *AccountNameGenerator) MaxAttempts() int {
	return g.maxAttempts
}

func (g *AccountNameGenerator) Generate(
	ctx context.Context,
	checker NameChecker,
) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate, err := g.source()
		if err != nil {
			return "", fmt.Errorf("generate account name: %w", err)
		}

		taken, err := checker.ExistsByAccountName(ctx, candidate, "")
		if err != nil {
			return "", fmt.Errorf("generate account name: %w", err)
		}

		if !taken {
			return candidate, nil
		}

		core.AccountNameCollisions.Inc()
		core.AddSpanEvent(ctx, "account_name.collision",
			attribute.Int("attempt", attempt),
		)
	}

	return "", core.Exhausted("generate account name", g.maxAttempts)
}

// RandomAccountName returns 20 hex characters.
func RandomAccountName() (string, error) {
	return core.RandomHex(accountNameBytes)
}

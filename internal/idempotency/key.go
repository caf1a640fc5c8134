// Package idempotency generates the per-submission keys the decision
// service uses to deduplicate retried requests.
package idempotency

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const Prefix = "idem_"

// Generator builds keys of the form idem_<unix-millis>_<32 hex chars>.
type Generator struct {
	Now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

func (g *Generator) Generate() string {
	now := time.Now
	if g != nil && g.Now != nil {
		now = g.Now
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%d_%s", Prefix, now().UnixMilli(), suffix)
}

var defaultGenerator = NewGenerator()

// Generate returns a fresh key from the default generator.
func Generate() string {
	return defaultGenerator.Generate()
}

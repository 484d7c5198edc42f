package ledger

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// OrderNumberPattern matches YAR-<year>-<6 digits>.
var OrderNumberPattern = regexp.MustCompile(`^YAR-\d{4}-\d{6}$`)

// OrderNumbers returns a generator of YAR-<year>-<6 random digits>.
// Collisions are possible; CreateOrder retries them.
func OrderNumbers(now func() time.Time) func() string {
	if now == nil {
		now = time.Now
	}
	return func() string {
		return fmt.Sprintf("YAR-%d-%06d", now().Year(), rand.Intn(1_000_000))
	}
}

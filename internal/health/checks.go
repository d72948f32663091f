package health

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/crogentx/crogentx/internal/circuitbreaker"
	"github.com/crogentx/crogentx/internal/records"
)

// DataSourceCheck reports whether src can serve transactions within timeout
func DataSourceCheck(name string, src records.DataSource, timeout time.Duration) Checker {
	return func(ctx context.Context) Status {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		txs, err := src.Transactions(ctx)
		if err != nil {
			return Status{Name: name, Healthy: false, Detail: err.Error()}
		}
		return Status{Name: name, Healthy: true, Detail: fmt.Sprintf("%d transactions", len(txs))}
	}
}

// BreakerCheck lists open upstream circuits. Open circuits are served from
// the fallback, so the check stays healthy and only reports them.
func BreakerCheck(name string, b *circuitbreaker.Breaker) Checker {
	return func(context.Context) Status {
		var open []string
		for key, state := range b.States() {
			if state != circuitbreaker.StateClosed {
				open = append(open, key+"="+state.String())
			}
		}
		if len(open) == 0 {
			return Status{Name: name, Healthy: true}
		}
		sort.Strings(open)
		return Status{Name: name, Healthy: true, Detail: "degraded: " + strings.Join(open, ",")}
	}
}

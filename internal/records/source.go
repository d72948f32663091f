// Package records serves x402 transaction and agent records: the data source
// abstraction, query filters, lookups, and the HTTP handlers over them.
package records

import (
	"context"
	"errors"
	"strings"

	"github.com/crogentx/crogentx/pkg/x402"
)

var (
	ErrTransactionNotFound = errors.New("records: transaction not found")
	ErrAgentNotFound       = errors.New("records: agent not found")
)

// DataSource provides the current set of records. Implementations must be
// safe for concurrent use and must not let callers mutate shared state.
type DataSource interface {
	Transactions(ctx context.Context) ([]x402.Transaction, error)
	Agents(ctx context.Context) ([]x402.Agent, error)
}

// AgentFinder is implemented by sources that can resolve a single agent
// without listing all of them
type AgentFinder interface {
	Agent(ctx context.Context, idOrAddress string) (x402.Agent, error)
}

// FindTransaction looks a transaction up by hash, ignoring case
func FindTransaction(txs []x402.Transaction, hash string) (x402.Transaction, error) {
	for _, tx := range txs {
		if strings.EqualFold(tx.TxHash, hash) {
			return tx, nil
		}
	}
	return x402.Transaction{}, ErrTransactionNotFound
}

// FindAgent looks an agent up by id, or by address ignoring case
func FindAgent(agents []x402.Agent, idOrAddress string) (x402.Agent, error) {
	for _, a := range agents {
		if a.ID == idOrAddress || strings.EqualFold(a.Address, idOrAddress) {
			return a, nil
		}
	}
	return x402.Agent{}, ErrAgentNotFound
}

// RelatedTransactions returns the transactions linked to the one with the
// given hash: its parent, children, and anything listed in its related ids.
func RelatedTransactions(txs []x402.Transaction, hash string) ([]x402.Transaction, error) {
	tx, err := FindTransaction(txs, hash)
	if err != nil {
		return nil, err
	}

	wantIDs := make(map[string]struct{}, len(tx.RelatedTransactions))
	for _, id := range tx.RelatedTransactions {
		wantIDs[id] = struct{}{}
	}
	wantHashes := make(map[string]struct{}, len(tx.ChildTxHashes)+1)
	for _, h := range tx.ChildTxHashes {
		wantHashes[strings.ToLower(h)] = struct{}{}
	}
	if tx.ParentTxHash != "" {
		wantHashes[strings.ToLower(tx.ParentTxHash)] = struct{}{}
	}

	related := []x402.Transaction{}
	for _, other := range txs {
		if other.ID == tx.ID {
			continue
		}
		_, byID := wantIDs[other.ID]
		_, byHash := wantHashes[strings.ToLower(other.TxHash)]
		if byID || byHash {
			related = append(related, other)
		}
	}
	return related, nil
}

// AgentTransactions returns the transactions attributed to an agent, in
// source order
func AgentTransactions(txs []x402.Transaction, agentID string) []x402.Transaction {
	out := []x402.Transaction{}
	for _, tx := range txs {
		if tx.AgentID == agentID {
			out = append(out, tx)
		}
	}
	return out
}

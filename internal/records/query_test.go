package records

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crogentx/crogentx/pkg/x402"
)

func parseTxQuery(t *testing.T, raw string) TransactionQuery {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := ParseTransactionQuery(v)
	require.NoError(t, err)
	return q
}

func TestParseTransactionQuery_Defaults(t *testing.T) {
	q := parseTxQuery(t, "")
	assert.Equal(t, TransactionQuery{Limit: DefaultTransactionLimit}, q)
}

func TestParseTransactionQuery_AllFields(t *testing.T) {
	q := parseTxQuery(t, "limit=5&offset=2&status=failed&agentId=agent-2&instructionType=swap"+
		"&minValue=1.5&maxValue=100&startDate=2023-11-15&endDate=2023-11-20T00:00:00Z&from=0xabc&to=0xdef")

	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 2, q.Offset)
	assert.Equal(t, x402.StatusFailed, q.Status)
	assert.Equal(t, "agent-2", q.AgentID)
	assert.Equal(t, x402.InstructionSwap, q.InstructionType)
	require.NotNil(t, q.MinValue)
	assert.Equal(t, 1.5, *q.MinValue)
	require.NotNil(t, q.MaxValue)
	assert.Equal(t, 100.0, *q.MaxValue)
	require.NotNil(t, q.StartDate)
	assert.Equal(t, time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC), q.StartDate.UTC())
	require.NotNil(t, q.EndDate)
	assert.Equal(t, time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC), q.EndDate.UTC())
	assert.Equal(t, "0xabc", q.From)
	assert.Equal(t, "0xdef", q.To)
}

func TestParseTransactionQuery_ClampsLimit(t *testing.T) {
	q := parseTxQuery(t, "limit=50000")
	assert.Equal(t, MaxTransactionLimit, q.Limit)
}

func TestParseTransactionQuery_Invalid(t *testing.T) {
	for _, raw := range []string{
		"limit=abc",
		"limit=0",
		"offset=-1",
		"minValue=lots",
		"maxValue=NaN",
		"startDate=yesterday",
		"endDate=2023/11/20",
	} {
		t.Run(raw, func(t *testing.T) {
			v, err := url.ParseQuery(raw)
			require.NoError(t, err)
			_, err = ParseTransactionQuery(v)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestTransactionQuery_Apply(t *testing.T) {
	txs := fixtureTransactions()

	tests := []struct {
		name  string
		query string
		want  []string
		total int
	}{
		{"no filters", "", []string{"tx-4", "tx-3", "tx-2", "tx-1", "tx-0"}, 5},
		{"status", "status=success", []string{"tx-4", "tx-3", "tx-1"}, 3},
		{"agent", "agentId=agent-0", []string{"tx-4", "tx-3"}, 2},
		{"instruction", "instructionType=swap", []string{"tx-3", "tx-2"}, 2},
		{"min value", "minValue=250", []string{"tx-3", "tx-1"}, 2},
		{"max value keeps malformed as zero", "maxValue=1", []string{"tx-2", "tx-0"}, 2},
		{"date range", "startDate=2023-11-15T22:13:20Z&endDate=2023-11-17T22:13:20Z", []string{"tx-3", "tx-2", "tx-1"}, 3},
		{"from case insensitive", "from=" + strings.ToUpper(addr(102)), []string{"tx-2", "tx-1"}, 2},
		{"to", "to=" + addr(200), []string{"tx-4", "tx-2", "tx-0"}, 3},
		{"combined", "status=success&minValue=100&agentId=agent-2", []string{"tx-1"}, 1},
		{"paged", "limit=2&offset=1", []string{"tx-3", "tx-2"}, 5},
		{"filter then page", "status=success&limit=1&offset=2", []string{"tx-1"}, 3},
		{"offset past end", "offset=10", []string{}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := parseTxQuery(t, tt.query)
			page, info := q.Apply(txs)
			assert.Equal(t, tt.want, ids(page))
			assert.Equal(t, tt.total, info.Total)
			assert.Equal(t, info.Offset+info.Limit < info.Total, info.HasMore)
		})
	}
}

func TestAgentQuery_Apply(t *testing.T) {
	agents := fixtureAgents()
	minBalance := 1000.0

	tests := []struct {
		name  string
		query AgentQuery
		want  []string
		total int
	}{
		{"all", AgentQuery{Limit: 50}, []string{"agent-0", "agent-1", "agent-2"}, 3},
		{"type", AgentQuery{Limit: 50, Type: x402.AgentTradingBot}, []string{"agent-2"}, 1},
		{"min balance", AgentQuery{Limit: 50, MinBalance: &minBalance}, []string{"agent-0", "agent-2"}, 2},
		{"active", AgentQuery{Limit: 50, ActiveOnly: true}, []string{"agent-0", "agent-2"}, 2},
		{"limit counts total before truncation", AgentQuery{Limit: 1}, []string{"agent-0"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total := tt.query.Apply(agents)
			gotIDs := make([]string, len(got))
			for i, a := range got {
				gotIDs[i] = a.ID
			}
			assert.Equal(t, tt.want, gotIDs)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestParseAgentQuery(t *testing.T) {
	v, _ := url.ParseQuery("limit=7&type=nft_sniper&minBalance=10&active=true")
	q, err := ParseAgentQuery(v)
	require.NoError(t, err)
	assert.Equal(t, 7, q.Limit)
	assert.Equal(t, x402.AgentNFTSniper, q.Type)
	require.NotNil(t, q.MinBalance)
	assert.Equal(t, 10.0, *q.MinBalance)
	assert.True(t, q.ActiveOnly)

	q, err = ParseAgentQuery(url.Values{"active": {"yes"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultAgentLimit, q.Limit)
	assert.False(t, q.ActiveOnly)

	_, err = ParseAgentQuery(url.Values{"minBalance": {"x"}})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

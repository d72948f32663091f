package devtools

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crogentx/crogentx/pkg/x402"
)

type staticSource struct{ txs []x402.Transaction }

func (s staticSource) Transactions(context.Context) ([]x402.Transaction, error) { return s.txs, nil }
func (s staticSource) Agents(context.Context) ([]x402.Agent, error)             { return nil, nil }

const knownHash = "0x1111111111111111111111111111111111111111111111111111111111111111"

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	src := staticSource{txs: []x402.Transaction{
		{ID: "tx-1", TxHash: knownHash, Status: x402.StatusFailed, GasUsed: "100000", GasPrice: "20", Value: "3", InstructionType: x402.InstructionSwap},
	}}
	r := gin.New()
	NewHandler(src, newTestSimulator(1), NewDebugger(Testnet, clock)).RegisterRoutes(r.Group("/api"))
	return r
}

func doPOST(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSimulateHandler_ZeroValueTransfer(t *testing.T) {
	w := doPOST(setupRouter(), "/api/simulate", `{"instruction":"transfer","agentId":"agent-1","value":"0"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SimulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Simulation.Analysis.Issues, IssueZeroValue)
	assert.False(t, resp.Simulation.Analysis.Safe)
	assert.Equal(t, "transfer", resp.Simulation.Instruction)
	assert.NotEmpty(t, resp.Simulation.ID)
}

func TestSimulateHandler_MissingFields(t *testing.T) {
	w := doPOST(setupRouter(), "/api/simulate", `{"instruction":"swap"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Success  bool     `json:"success"`
		Error    string   `json:"error"`
		Required []string `json:"required"`
		Missing  []string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Missing required fields", body.Error)
	assert.Equal(t, []string{"instruction", "agentId", "value"}, body.Required)
	assert.Equal(t, []string{"agentId", "value"}, body.Missing)
}

func TestSimulateHandler_BadBodies(t *testing.T) {
	r := setupRouter()
	for _, body := range []string{"", "not json", `["array"]`} {
		w := doPOST(r, "/api/simulate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}

	w := doPOST(r, "/api/simulate", `{"instruction":"swap","agentId":"a","value":"-4"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request")
}

func TestDebugHandler(t *testing.T) {
	r := setupRouter()

	w := doPOST(r, "/api/debug", `{"transactionHash":"`+knownHash+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp DebugResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "tx-1", resp.Transaction.ID)
	assert.Equal(t, x402.StatusFailed, resp.Debug.Status)
	assert.Equal(t, Testnet.TxURL(knownHash), resp.Debug.ExplorerURL)
}

func TestDebugHandler_MissingHash(t *testing.T) {
	w := doPOST(setupRouter(), "/api/debug", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []any{"transactionHash"}, body["missing"])
}

func TestDebugHandler_UnknownHash(t *testing.T) {
	w := doPOST(setupRouter(), "/api/debug", `{"transactionHash":"0xdeadbeef"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Transaction not found")
}

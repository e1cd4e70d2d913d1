package anvil

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

type rpcRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  []any           `json:"params"`
	ID      json.RawMessage `json:"id"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  any             `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildAnvilArgs_Basic(t *testing.T) {
	instance := &domain.AnvilInstance{
		Port: "8545",
	}
	args := buildAnvilArgs(instance)
	assert.Equal(t, []string{"--port", "8545", "--host", "127.0.0.1"}, args)
}

func TestBuildAnvilArgs_WithChainID(t *testing.T) {
	instance := &domain.AnvilInstance{
		Port:    "9000",
		ChainID: "1",
	}
	args := buildAnvilArgs(instance)
	assert.Equal(t, []string{"--port", "9000", "--host", "127.0.0.1", "--chain-id", "1"}, args)
}

func TestBuildAnvilArgs_WithForkURL(t *testing.T) {
	instance := &domain.AnvilInstance{
		Port:    "9000",
		ForkURL: "https://rpc.frax.com",
	}
	args := buildAnvilArgs(instance)
	assert.Equal(t, []string{"--port", "9000", "--host", "127.0.0.1", "--fork-url", "https://rpc.frax.com"}, args)
}

func TestBuildAnvilArgs_WithoutForkURL(t *testing.T) {
	instance := &domain.AnvilInstance{
		Port:    "8545",
		ChainID: "31337",
	}
	args := buildAnvilArgs(instance)
	// Should NOT contain --fork-url
	for _, arg := range args {
		assert.NotEqual(t, "--fork-url", arg)
	}
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(&config.RuntimeConfig{}, quietLogger())
	assert.Equal(t, DefaultAnvilBinary, m.binary)

	m = NewManager(&config.RuntimeConfig{AnvilPath: "/opt/foundry/anvil", CacheDir: "/var/cache/treb-vote"}, quietLogger())
	assert.Equal(t, "/opt/foundry/anvil", m.binary)
	assert.Equal(t, "/var/cache/treb-vote/anvil", m.runDir)
}

func TestSetFilePaths_NamedInstance(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(&config.RuntimeConfig{CacheDir: dir}, quietLogger())
	instance := &domain.AnvilInstance{
		Name: "mainnet-1a2b3c4d",
		Port: "54321",
	}
	m.setFilePaths(instance)

	assert.Equal(t, filepath.Join(dir, "anvil", "mainnet-1a2b3c4d.pid"), instance.PidFile)
	assert.Equal(t, filepath.Join(dir, "anvil", "mainnet-1a2b3c4d.log"), instance.LogFile)
}

func TestSetFilePaths_PresetPathsPreserved(t *testing.T) {
	m := NewManager(&config.RuntimeConfig{}, quietLogger())
	instance := &domain.AnvilInstance{
		Name:    "fraxtal",
		Port:    "54321",
		PidFile: "/custom/path/my.pid",
		LogFile: "/custom/path/my.log",
	}
	m.setFilePaths(instance)

	assert.Equal(t, "/custom/path/my.pid", instance.PidFile)
	assert.Equal(t, "/custom/path/my.log", instance.LogFile)
}

func TestInstanceName(t *testing.T) {
	name := instanceName("base sepolia/gas")
	assert.True(t, strings.HasPrefix(name, "base_sepolia_gas-"), name)
	assert.NotEqual(t, name, instanceName("base sepolia/gas"))
}

func TestLogTail(t *testing.T) {
	assert.Equal(t, "", logTail("  \n", 3))
	assert.Equal(t, "\nanvil output:\n  b\n  c", logTail("a\nb\nc\n", 2))
}

func TestStart_FailureIncludesLogTail(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()
	fake := filepath.Join(dir, "fake-anvil")
	script := "#!/bin/sh\necho 'Error: failed to get fork block number'\n"
	require.NoError(t, os.WriteFile(fake, []byte(script), 0755))

	m := NewManager(&config.RuntimeConfig{AnvilPath: fake, CacheDir: dir}, quietLogger())
	port, err := getAvailablePort()
	require.NoError(t, err)
	instance := &domain.AnvilInstance{Name: "broken", Port: strconv.Itoa(port), ForkURL: "http://invalid"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = m.Start(ctx, instance)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anvil 'broken' did not become ready")
	assert.Contains(t, err.Error(), "failed to get fork block number")
	assert.NoFileExists(t, instance.PidFile)
}

func TestStop_WithoutPidFile(t *testing.T) {
	m := NewManager(&config.RuntimeConfig{CacheDir: t.TempDir()}, quietLogger())
	require.NoError(t, m.Stop(context.Background(), &domain.AnvilInstance{Name: "gone"}))
}

func TestGetAvailablePort(t *testing.T) {
	port, err := getAvailablePort()
	require.NoError(t, err)
	assert.Greater(t, port, 0)
}

// newMockRPCServer creates a test HTTP server that responds to JSON-RPC requests
func newMockRPCServer(t *testing.T, handler func(req rpcRequest) rpcResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode RPC request: %v", err)
			return
		}
		resp := handler(req)
		resp.Jsonrpc = "2.0"
		resp.ID = req.ID
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("failed to encode RPC response: %v", err)
		}
	}))
}

// envForServer connects an Environment to the test server
func envForServer(t *testing.T, server *httptest.Server) *Environment {
	t.Helper()
	client, err := rpc.DialContext(context.Background(), server.URL)
	require.NoError(t, err)
	env := newEnvironment("test", client, nil, quietLogger())
	t.Cleanup(func() { _ = env.Close() })
	return env
}

// recorder keeps the methods a mock server received, in order
type recorder struct {
	mu      sync.Mutex
	methods []string
	params  map[string][]any
}

func (r *recorder) record(req rpcRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.params == nil {
		r.params = make(map[string][]any)
	}
	r.methods = append(r.methods, req.Method)
	r.params[req.Method] = req.Params
}

func TestCheckRPCHealth(t *testing.T) {
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		assert.Equal(t, "eth_chainId", req.Method)
		return rpcResponse{Result: "0x1"}
	})
	defer server.Close()

	require.NoError(t, checkRPCHealth(context.Background(), server.URL))
}

func TestSnapshot_Success(t *testing.T) {
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		assert.Equal(t, "evm_snapshot", req.Method)
		return rpcResponse{Result: "0x1"}
	})
	defer server.Close()

	snapshotID, err := envForServer(t, server).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x1", snapshotID)
}

func TestSnapshot_RPCError(t *testing.T) {
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		return rpcResponse{Error: &rpcError{Code: -32000, Message: "snapshot failed"}}
	})
	defer server.Close()

	_, err := envForServer(t, server).Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot failed")
}

func TestRevert_Success(t *testing.T) {
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		assert.Equal(t, "evm_revert", req.Method)
		require.Len(t, req.Params, 1)
		assert.Equal(t, "0x1", req.Params[0])
		return rpcResponse{Result: true}
	})
	defer server.Close()

	require.NoError(t, envForServer(t, server).Revert(context.Background(), "0x1"))
}

func TestRevert_ReturnsFalse(t *testing.T) {
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		return rpcResponse{Result: false}
	})
	defer server.Close()

	err := envForServer(t, server).Revert(context.Background(), "0xbad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evm_revert returned false")
}

func TestRevert_RPCError(t *testing.T) {
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		return rpcResponse{Error: &rpcError{Code: -32000, Message: "revert failed"}}
	})
	defer server.Close()

	err := envForServer(t, server).Revert(context.Background(), "0x1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revert failed")
}

func TestImpersonate_FundsAccount(t *testing.T) {
	rec := &recorder{}
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		rec.record(req)
		return rpcResponse{Result: nil}
	})
	defer server.Close()

	account := common.HexToAddress("0x989AEb4d175e16225E39E87d0D97A3360524AD80")
	require.NoError(t, envForServer(t, server).Impersonate(context.Background(), account))

	assert.Equal(t, []string{"anvil_impersonateAccount", "anvil_setBalance"}, rec.methods)
	balance := rec.params["anvil_setBalance"]
	require.Len(t, balance, 2)
	assert.Equal(t, (*hexutil.Big)(impersonatedBalance).String(), balance[1])
}

func TestIncreaseTime_MinesBlock(t *testing.T) {
	rec := &recorder{}
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		rec.record(req)
		return rpcResponse{Result: "0x0"}
	})
	defer server.Close()

	require.NoError(t, envForServer(t, server).IncreaseTime(context.Background(), 604800))
	assert.Equal(t, []string{"evm_increaseTime", "evm_mine"}, rec.methods)
	assert.Equal(t, []any{float64(604800)}, rec.params["evm_increaseTime"])
}

func TestCall_ReturnsData(t *testing.T) {
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		assert.Equal(t, "eth_call", req.Method)
		require.Len(t, req.Params, 2)
		assert.Equal(t, "latest", req.Params[1])
		return rpcResponse{Result: "0x0000000000000000000000000000000000000000000000000000000000000001"}
	})
	defer server.Close()

	out, err := envForServer(t, server).Call(context.Background(), common.Address{}, common.HexToAddress("0x01"), []byte{0xde, 0xad})
	require.NoError(t, err)
	require.Len(t, out, 32)
	assert.Equal(t, byte(1), out[31])
}

func TestCall_RevertKeepsData(t *testing.T) {
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		return rpcResponse{Error: &rpcError{Code: 3, Message: "execution reverted", Data: "0x08c379a0"}}
	})
	defer server.Close()

	_, err := envForServer(t, server).Call(context.Background(), common.Address{}, common.HexToAddress("0x01"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution reverted")
	assert.Contains(t, err.Error(), "0x08c379a0")
}

func receiptJSON(hash, status string) map[string]any {
	return map[string]any{
		"type":              "0x2",
		"status":            status,
		"cumulativeGasUsed": "0x5208",
		"gasUsed":           "0x5208",
		"logsBloom":         "0x" + strings.Repeat("00", 256),
		"logs":              []any{},
		"transactionHash":   hash,
		"blockHash":         "0x" + strings.Repeat("11", 32),
		"blockNumber":       "0x10",
		"transactionIndex":  "0x0",
	}
}

func TestTransact(t *testing.T) {
	hash := "0x" + strings.Repeat("ab", 32)

	for _, tc := range []struct {
		name     string
		status   string
		reverted bool
	}{
		{name: "success", status: "0x1"},
		{name: "reverted", status: "0x0", reverted: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
				switch req.Method {
				case "eth_sendTransaction":
					return rpcResponse{Result: hash}
				case "eth_getTransactionReceipt":
					return rpcResponse{Result: receiptJSON(hash, tc.status)}
				}
				return rpcResponse{Error: &rpcError{Code: -32601, Message: "method not found"}}
			})
			defer server.Close()

			receipt, err := envForServer(t, server).Transact(context.Background(), common.HexToAddress("0x02"), common.HexToAddress("0x01"), []byte{0x01})
			require.NotNil(t, receipt)
			assert.Equal(t, common.HexToHash(hash), receipt.TxHash)
			if tc.reverted {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "reverted")
				return
			}
			require.NoError(t, err)
		})
	}
}

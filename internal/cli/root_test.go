package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadow-fork/shadow-cli/internal/domain"
)

// runCmd executes the root command inside a fresh project directory
func runCmd(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	chdirForTest(t, dir)
	for _, key := range []string{"ETH_RPC_URL", "WS_RPC_URL", "SHADOW_RPC_URL", "SHADOW_WS_RPC_URL"} {
		t.Setenv(key, "")
	}

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--non-interactive"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Commands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"deploy", "fork", "list", "events", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	fork, _, err := cmd.Find([]string{"fork"})
	require.NoError(t, err)
	for _, flag := range []string{"all-txs", "origin-block", "port"} {
		assert.NotNil(t, fork.Flags().Lookup(flag), flag)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "shadow version dev")
}

func TestListCmd(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out, err := runCmd(t, t.TempDir(), "list")
		require.NoError(t, err)
		assert.Contains(t, out, "No shadow contracts found")
	})

	t.Run("json", func(t *testing.T) {
		dir := t.TempDir()
		store := `{"shadows":{"0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc":{
			"id":"1","address":"0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc",
			"fileName":"Pair.sol","contractName":"UniswapV2Pair","runtimeBytecode":"0x6001",
			"deployedAt":"2024-03-01T12:00:00Z"}}}`
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".shadow"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".shadow", "shadows.json"), []byte(store), 0644))

		out, err := runCmd(t, dir, "list", "--json")
		require.NoError(t, err)

		var shadows []domain.ShadowContract
		require.NoError(t, json.Unmarshal([]byte(out), &shadows))
		require.Len(t, shadows, 1)
		assert.Equal(t, "UniswapV2Pair", shadows[0].ContractName)
	})
}

func TestDeployCmd_Validation(t *testing.T) {
	t.Run("invalid address", func(t *testing.T) {
		_, err := runCmd(t, t.TempDir(), "deploy", "Counter.sol", "0x1234")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid address")
	})

	t.Run("missing arguments", func(t *testing.T) {
		_, err := runCmd(t, t.TempDir(), "deploy", "Counter.sol")
		require.Error(t, err)
	})

	t.Run("missing artifact", func(t *testing.T) {
		_, err := runCmd(t, t.TempDir(), "deploy", "Counter.sol", "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	})
}

func TestEventsCmd_InvalidHash(t *testing.T) {
	_, err := runCmd(t, t.TempDir(), "events", "0xdead")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transaction hash")
}

func TestForkCmd_MissingEndpoints(t *testing.T) {
	_, err := runCmd(t, t.TempDir(), "fork")

	var missing *domain.MissingConfigError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "rpc_url", missing.Key)
}

func TestForkCmd_ModesAreExclusive(t *testing.T) {
	_, err := runCmd(t, t.TempDir(), "fork", "--all-txs", "--follow-head")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "follow-head")
}

// chdirForTest changes the working directory for the duration of the test
// and restores it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

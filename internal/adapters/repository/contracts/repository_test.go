package contracts

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
)

const counterArtifact = `{
	"abi": [{"type":"function","name":"increment","inputs":[],"outputs":[],"stateMutability":"nonpayable"}],
	"bytecode": {"object": "0x6080604052"},
	"deployedBytecode": {"object": "0x60016002"},
	"metadata": {"compiler": {"version": "0.8.24"}}
}`

func writeArtifact(t *testing.T, outDir, file, name, content string) {
	t.Helper()
	dir := filepath.Join(outDir, file)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()
	outDir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRepository(&config.RuntimeConfig{ArtifactsDir: outDir}, log), outDir
}

func TestRepository_Get(t *testing.T) {
	ctx := context.Background()
	repo, outDir := newTestRepository(t)
	writeArtifact(t, outDir, "Counter.sol", "Counter.json", counterArtifact)

	t.Run("by file and name", func(t *testing.T) {
		artifact, err := repo.Get(ctx, domain.ParseContractIdentifier("Counter.sol:Counter"))
		require.NoError(t, err)
		assert.Equal(t, "0x60016002", artifact.DeployedBytecode.Object)
		assert.Equal(t, "0x6080604052", artifact.Bytecode.Object)
		assert.Equal(t, "0.8.24", artifact.Metadata.Compiler.Version)
		assert.Contains(t, string(artifact.ABI), "increment")
	})

	t.Run("source path prefix is ignored", func(t *testing.T) {
		_, err := repo.Get(ctx, domain.ParseContractIdentifier("src/Counter.sol:Counter"))
		require.NoError(t, err)
	})

	t.Run("versioned artifact", func(t *testing.T) {
		writeArtifact(t, outDir, "Pair.sol", "Pair.0.6.12.json", `{"deployedBytecode":{"object":"0x01"}}`)
		writeArtifact(t, outDir, "Pair.sol", "Pair.0.8.20.json", `{"deployedBytecode":{"object":"0x02"}}`)

		artifact, err := repo.Get(ctx, domain.ParseContractIdentifier("Pair.sol"))
		require.NoError(t, err)
		assert.Equal(t, "0x02", artifact.DeployedBytecode.Object)
	})

	t.Run("invalid json", func(t *testing.T) {
		writeArtifact(t, outDir, "Broken.sol", "Broken.json", `{not json`)

		_, err := repo.Get(ctx, domain.ParseContractIdentifier("Broken.sol"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrArtifactNotFound)

		var syntaxErr *json.SyntaxError
		assert.ErrorAs(t, err, &syntaxErr)
		assert.Contains(t, err.Error(), "Broken.json")
	})

	t.Run("unreadable artifact", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		writeArtifact(t, outDir, "Locked.sol", "Locked.json", counterArtifact)
		require.NoError(t, os.Chmod(filepath.Join(outDir, "Locked.sol", "Locked.json"), 0))

		_, err := repo.Get(ctx, domain.ParseContractIdentifier("Locked.sol"))
		assert.ErrorIs(t, err, fs.ErrPermission)
		assert.NotErrorIs(t, err, domain.ErrArtifactNotFound)
	})
}

func TestRepository_NotFoundSuggests(t *testing.T) {
	ctx := context.Background()
	repo, outDir := newTestRepository(t)
	writeArtifact(t, outDir, "Counter.sol", "Counter.json", counterArtifact)
	writeArtifact(t, outDir, "Router.sol", "Router.json", counterArtifact)
	writeArtifact(t, outDir, "build-info", "abc123.json", `{}`)

	_, err := repo.Get(ctx, domain.ParseContractIdentifier("Countr.sol"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

	var notFound *domain.ArtifactNotFoundErr
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"Counter.sol:Counter"}, notFound.Suggestions)
	assert.Contains(t, err.Error(), "did you mean")
}

func TestRepository_MissingOutDir(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewRepository(&config.RuntimeConfig{ArtifactsDir: filepath.Join(t.TempDir(), "missing")}, log)

	_, err := repo.Get(context.Background(), domain.ParseContractIdentifier("Counter.sol"))
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

	var notFound *domain.ArtifactNotFoundErr
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, notFound.Suggestions)
}

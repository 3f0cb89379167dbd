package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shadow-fork/shadow-cli/internal/domain/config"
)

const (
	// DataDirName is the per-project state directory
	DataDirName = ".shadow"
	// DefaultArtifactsDir is used when the project has no foundry.toml
	DefaultArtifactsDir = "contracts/out"
	// DefaultForkPort is the local port of the fork node
	DefaultForkPort = 8545
)

// envAliases are the conventional variable names read alongside SHADOW_*
var envAliases = map[string]string{
	"rpc_url":           "ETH_RPC_URL",
	"ws_rpc_url":        "WS_RPC_URL",
	"etherscan_api_key": "ETHERSCAN_API_KEY",
}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	foundryConfig, err := loadFoundryConfig(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load foundry config: %w", err)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:     projectRoot,
		DataDir:         resolvePath(projectRoot, v.GetString("data_dir")),
		ArtifactsDir:    resolvePath(projectRoot, artifactsDir(v, foundryConfig)),
		RPCURL:          foundryConfig.ResolveEndpoint(v.GetString("rpc_url")),
		WSRPCURL:        foundryConfig.ResolveEndpoint(v.GetString("ws_rpc_url")),
		EtherscanAPIKey: v.GetString("etherscan_api_key"),
		EtherscanAPIURL: v.GetString("etherscan_api_url"),
		Debug:           v.GetBool("debug"),
		NonInteractive:  v.GetBool("non_interactive"),
		Timeout:         v.GetDuration("timeout"),
		Fork: config.ForkConfig{
			Port:        v.GetInt("fork.port"),
			OriginBlock: v.GetUint64("fork.origin_block"),
			AnvilPath:   v.GetString("fork.anvil_path"),
			ChainID:     v.GetUint64("fork.chain_id"),
		},
		FoundryConfig: foundryConfig,
	}
	return cfg, nil
}

func artifactsDir(v *viper.Viper, foundryConfig *config.FoundryConfig) string {
	if dir := v.GetString("artifacts_dir"); dir != "" {
		return dir
	}
	if foundryConfig != nil {
		return foundryConfig.OutDir()
	}
	return DefaultArtifactsDir
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// FindProjectRoot walks up from the current directory to the first directory
// holding foundry.toml or shadow.toml. Outside a project it returns the
// current directory.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		for _, marker := range []string{"foundry.toml", "shadow.toml"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance. Values resolve in
// order: flags, SHADOW_* variables, conventional variables (ETH_RPC_URL,
// WS_RPC_URL, ETHERSCAN_API_KEY), shadow.toml, defaults. .env files are
// loaded into the environment first.
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	loadEnvFiles(projectRoot)

	v := viper.New()

	v.SetConfigName("shadow")
	v.SetConfigType("toml")
	v.AddConfigPath(projectRoot)

	v.SetEnvPrefix("SHADOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	for key, alias := range envAliases {
		// BindEnv only errors without a key
		_ = v.BindEnv(key, "SHADOW_"+strings.ToUpper(key), alias)
	}

	v.SetDefault("project_root", projectRoot)
	v.SetDefault("data_dir", DataDirName)
	v.SetDefault("timeout", "0s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("fork.port", DefaultForkPort)
	v.SetDefault("fork.origin_block", 0)
	v.SetDefault("fork.anvil_path", "anvil")

	// shadow.toml is optional
	_ = v.ReadInConfig()

	if cmd != nil {
		bindFlags(v, cmd)
	}
	return v
}

// flagKeys maps command flags onto configuration keys
var flagKeys = map[string]string{
	"debug":           "debug",
	"non-interactive": "non_interactive",
	"rpc-url":         "rpc_url",
	"port":            "fork.port",
	"origin-block":    "fork.origin_block",
}

// bindFlags binds the flags of cmd that carry configuration values
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})
}

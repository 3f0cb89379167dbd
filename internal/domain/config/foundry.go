package config

import "strings"

// DefaultProfile is the foundry profile read for build settings
const DefaultProfile = "default"

// FoundryConfig represents the parts of foundry.toml shadow reads
type FoundryConfig struct {
	Profile      map[string]ProfileConfig `toml:"profile"`
	RpcEndpoints map[string]string        `toml:"rpc_endpoints"`
}

// ProfileConfig represents a profile's build settings
type ProfileConfig struct {
	SrcPath string `toml:"src,omitempty"`
	OutPath string `toml:"out,omitempty"`
}

// OutDir returns the artifacts directory of the default profile, "out" when unset
func (f *FoundryConfig) OutDir() string {
	if f != nil {
		if p, ok := f.Profile[DefaultProfile]; ok && p.OutPath != "" {
			return p.OutPath
		}
	}
	return "out"
}

// ResolveEndpoint maps an [rpc_endpoints] alias such as "mainnet" to its URL.
// Values that are already URLs, or unknown aliases, are returned unchanged.
func (f *FoundryConfig) ResolveEndpoint(value string) string {
	if f == nil || value == "" || strings.Contains(value, "://") {
		return value
	}
	if url, ok := f.RpcEndpoints[value]; ok {
		return url
	}
	return value
}

package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Metadata keys recorded alongside a shadow contract
const (
	MetaVerifiedName     = "verifiedName"
	MetaCompilerVersion  = "compilerVersion"
	MetaShadowCompiler   = "shadowCompiler"
	MetaBytecodeSource   = "bytecodeSource"
	MetaChainID          = "chainId"
	MetaReplacedCodeSize = "replacedCodeSize"
)

// Bytecode sources for MetaBytecodeSource
const (
	BytecodeFromConstructor = "constructor"
	BytecodeFromArtifact    = "artifact"
)

// ShadowContract is a shadow deployment recorded in the shadow store
type ShadowContract struct {
	ID              string            `json:"id"`
	Address         common.Address    `json:"address"`
	FileName        string            `json:"fileName"`
	ContractName    string            `json:"contractName"`
	RuntimeBytecode hexutil.Bytes     `json:"runtimeBytecode"`
	DeployedAt      time.Time         `json:"deployedAt"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Identifier returns the contract identifier the shadow was built from
func (s *ShadowContract) Identifier() ContractIdentifier {
	return ContractIdentifier{FileName: s.FileName, ContractName: s.ContractName}
}

// VerifiedContract is verified source metadata for an on-chain address
type VerifiedContract struct {
	Address              common.Address `json:"address"`
	ContractName         string         `json:"contractName"`
	SourceCode           string         `json:"sourceCode"`
	ABI                  string         `json:"abi"`
	CompilerVersion      string         `json:"compilerVersion"`
	ConstructorArguments string         `json:"constructorArguments"`
	LicenseType          string         `json:"licenseType"`
	Proxy                bool           `json:"proxy"`
	Implementation       string         `json:"implementation,omitempty"`
}

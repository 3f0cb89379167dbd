package models

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnlinked is returned for bytecode that still has library placeholders
var ErrUnlinked = errors.New("bytecode has unlinked library references")

// BytecodeObject represents bytecode information in a Foundry artifact
type BytecodeObject struct {
	Object         string         `json:"object"`
	SourceMap      string         `json:"sourceMap"`
	LinkReferences map[string]any `json:"linkReferences"`
}

// Bytes decodes the bytecode. An empty object decodes to nil.
func (b BytecodeObject) Bytes() ([]byte, error) {
	object := strings.TrimPrefix(strings.TrimSpace(b.Object), "0x")
	if len(b.LinkReferences) > 0 || strings.Contains(object, "__$") {
		return nil, ErrUnlinked
	}
	code, err := hex.DecodeString(object)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode: %w", err)
	}
	return code, nil
}

// Artifact represents a Foundry compilation artifact
type Artifact struct {
	ABI              json.RawMessage  `json:"abi"`
	Bytecode         BytecodeObject   `json:"bytecode"`
	DeployedBytecode BytecodeObject   `json:"deployedBytecode"`
	Metadata         ArtifactMetadata `json:"metadata"`
}

// ArtifactMetadata represents the metadata section of a Foundry artifact
type ArtifactMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
}

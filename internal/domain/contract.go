package domain

import (
	"fmt"
	"strings"
)

// ContractIdentifier names a compiled contract by its source file and contract name
type ContractIdentifier struct {
	FileName     string `json:"fileName"`
	ContractName string `json:"contractName"`
}

// ParseContractIdentifier parses "File.sol" or "File.sol:Name".
//
// The contract name is taken verbatim from the right of the first ':'. Without
// a ':' it defaults to the file name up to its first '.', so "Foo" yields "Foo"
// and "" or ".sol" yield an empty name. Any input is accepted.
func ParseContractIdentifier(contract string) ContractIdentifier {
	fileName, contractName, found := strings.Cut(contract, ":")
	if !found {
		contractName, _, _ = strings.Cut(fileName, ".")
	}
	return ContractIdentifier{
		FileName:     fileName,
		ContractName: contractName,
	}
}

// Validate reports whether both parts of the identifier are present
func (c ContractIdentifier) Validate() error {
	if c.FileName == "" {
		return fmt.Errorf("%w: missing file name", ErrInvalidContractIdentifier)
	}
	if c.ContractName == "" {
		return fmt.Errorf("%w: missing contract name in %q", ErrInvalidContractIdentifier, c.FileName)
	}
	return nil
}

// String returns the canonical "File.sol:Name" form
func (c ContractIdentifier) String() string {
	return fmt.Sprintf("%s:%s", c.FileName, c.ContractName)
}

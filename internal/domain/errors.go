package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidContractIdentifier is returned when a contract string has no usable file or contract name
	ErrInvalidContractIdentifier = errors.New("invalid contract identifier")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrArtifactNotFound is returned when no compiled artifact exists for a contract
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidArtifact is returned when an artifact exists but cannot be read or deployed
	ErrInvalidArtifact = errors.New("invalid artifact")

	// ErrProvider is returned when a node connection or call fails
	ErrProvider = errors.New("provider error")

	// ErrCodeInjection is returned when bytecode could not be placed on the fork
	ErrCodeInjection = errors.New("code injection failed")

	// ErrShadowStore is returned when the shadow store cannot be read or written
	ErrShadowStore = errors.New("shadow store error")

	// ErrReplay is returned when a historical transaction could not be replayed on the fork
	ErrReplay = errors.New("replay failed")

	// ErrNotVerified is returned when the verification service has no source for an address
	ErrNotVerified = errors.New("contract not verified")

	// ErrUnknownEvent is returned when no event in an ABI matches a log
	ErrUnknownEvent = errors.New("unknown event")
)

// DeployError reports which deploy step failed.
// errors.Is matches both the Kind sentinel and the underlying cause.
type DeployError struct {
	Step string
	Kind error
	Err  error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy failed at %s: %v", e.Step, e.Err)
}

func (e *DeployError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// ForkError reports which fork step failed
type ForkError struct {
	Step string
	Kind error
	Err  error
}

func (e *ForkError) Error() string {
	return fmt.Sprintf("fork failed at %s: %v", e.Step, e.Err)
}

func (e *ForkError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// ArtifactNotFoundErr is returned by artifact stores with close matches to help the user
type ArtifactNotFoundErr struct {
	Contract    ContractIdentifier
	Reason      string
	Suggestions []string
}

func (e *ArtifactNotFoundErr) Error() string {
	msg := fmt.Sprintf("no artifact for %s", e.Contract)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Suggestions) > 0 {
		msg += "\ndid you mean:\n  - " + strings.Join(e.Suggestions, "\n  - ")
	}
	return msg
}

func (e *ArtifactNotFoundErr) Unwrap() error {
	return ErrArtifactNotFound
}

// MissingConfigError is returned when a command needs a configuration value that is not set
type MissingConfigError struct {
	Key    string
	EnvVar string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing configuration %q: please set %s", e.Key, e.EnvVar)
}

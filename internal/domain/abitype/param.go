package abitype

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Param is one input or output of a JSON ABI entry. Event inputs and
// function/constructor parameters share this shape.
type Param struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	InternalType string  `json:"internalType,omitempty"`
	Components   []Param `json:"components,omitempty"`
	Indexed      bool    `json:"indexed,omitempty"`
}

// Entry is one item of a JSON ABI
type Entry struct {
	Type            string  `json:"type"`
	Name            string  `json:"name,omitempty"`
	Inputs          []Param `json:"inputs,omitempty"`
	Outputs         []Param `json:"outputs,omitempty"`
	Anonymous       bool    `json:"anonymous,omitempty"`
	StateMutability string  `json:"stateMutability,omitempty"`
}

// ParseABI decodes a JSON ABI document
func ParseABI(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return entries, nil
}

// Signature renders the canonical "Name(T1,T2)" form of the entry, the
// preimage of event topic hashes and function selectors.
func (e Entry) Signature() (string, error) {
	types, err := ResolveAll(e.Inputs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.Name, err)
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return e.Name + "(" + strings.Join(parts, ",") + ")", nil
}

// Events returns the event entries of an ABI
func Events(entries []Entry) []Entry {
	var events []Entry
	for _, e := range entries {
		if e.Type == "event" {
			events = append(events, e)
		}
	}
	return events
}

// Constructor returns the constructor entry of an ABI, if any
func Constructor(entries []Entry) (Entry, bool) {
	for _, e := range entries {
		if e.Type == "constructor" {
			return e, true
		}
	}
	return Entry{}, false
}

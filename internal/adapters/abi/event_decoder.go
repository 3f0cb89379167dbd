package abi

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/abitype"
)

// EventDecoder decodes logs against a JSON ABI
type EventDecoder struct {
	log *slog.Logger
}

// NewEventDecoder creates a new event decoder
func NewEventDecoder(log *slog.Logger) *EventDecoder {
	return &EventDecoder{
		log: log.With("component", "EventDecoder"),
	}
}

// Decode matches the log's first topic against the events of abiJSON and
// decodes its parameters. Indexed parameters that are hashed into their topic
// (strings, bytes, arrays, tuples) are reported as the topic hash.
func (d *EventDecoder) Decode(entry types.Log, abiJSON []byte) (*domain.DecodedEvent, error) {
	if len(entry.Topics) == 0 {
		return nil, fmt.Errorf("%w: log has no topics", domain.ErrUnknownEvent)
	}

	entries, err := abitype.ParseABI(abiJSON)
	if err != nil {
		return nil, err
	}

	for _, event := range abitype.Events(entries) {
		if event.Anonymous {
			continue
		}
		sig, err := event.Signature()
		if err != nil {
			d.log.Debug("Skipping event with unsupported signature", "event", event.Name, "error", err)
			continue
		}
		if crypto.Keccak256Hash([]byte(sig)) != entry.Topics[0] {
			continue
		}

		params, err := d.decodeParams(event.Inputs, entry)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", sig, err)
		}

		return &domain.DecodedEvent{
			Address:     entry.Address,
			Name:        event.Name,
			Signature:   sig,
			BlockNumber: entry.BlockNumber,
			TxHash:      entry.TxHash,
			LogIndex:    entry.Index,
			Params:      params,
		}, nil
	}

	return nil, fmt.Errorf("%w: topic %s", domain.ErrUnknownEvent, entry.Topics[0].Hex())
}

func (d *EventDecoder) decodeParams(inputs []abitype.Param, entry types.Log) ([]domain.DecodedParam, error) {
	var indexed, data []abitype.Param
	for _, in := range inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		} else {
			data = append(data, in)
		}
	}

	topics := entry.Topics[1:]
	if len(topics) != len(indexed) {
		return nil, fmt.Errorf("expected %d indexed topics, got %d", len(indexed), len(topics))
	}

	var values []any
	if len(data) > 0 {
		args, err := UnifyArguments(data)
		if err != nil {
			return nil, err
		}
		values, err = args.UnpackValues(entry.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack event data: %w", err)
		}
	}

	params := make([]domain.DecodedParam, 0, len(inputs))
	var topicIdx, dataIdx int
	for i, in := range inputs {
		t, err := abitype.ResolveNamed(in)
		if err != nil {
			return nil, err
		}
		name := in.Name
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}

		var value any
		if in.Indexed {
			value, err = decodeTopic(t, topics[topicIdx])
			if err != nil {
				return nil, fmt.Errorf("indexed param %s: %w", name, err)
			}
			topicIdx++
		} else {
			value = nameFields(t, values[dataIdx])
			dataIdx++
		}

		params = append(params, domain.DecodedParam{
			Name:    name,
			Type:    t.String(),
			Indexed: in.Indexed,
			Value:   value,
		})
	}
	return params, nil
}

// decodeTopic decodes a value type from its topic; reference types are only
// present as the keccak hash of their encoding
func decodeTopic(t abitype.Type, topic common.Hash) (any, error) {
	switch t.(type) {
	case abitype.Address, abitype.Bool, abitype.Int, abitype.Uint, abitype.FixedBytes:
	default:
		return topic, nil
	}

	codec, err := Unify(t)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, 1)
	args := ethabi.Arguments{{Name: "value", Type: codec, Indexed: true}}
	if err := ethabi.ParseTopicsIntoMap(out, args, []common.Hash{topic}); err != nil {
		return nil, err
	}
	return out["value"], nil
}

// nameFields restores struct field names that the codec dropped, turning
// decoded structs into maps keyed by Solidity field name
func nameFields(t abitype.Type, value any) any {
	switch v := t.(type) {
	case abitype.Struct:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Struct || rv.NumField() != len(v.Fields) {
			return value
		}
		out := make(map[string]any, len(v.Fields))
		for i, field := range v.Fields {
			if field == "" {
				field = "field" + strconv.Itoa(i)
			}
			out[field] = nameFields(v.Elems[i], rv.Field(i).Interface())
		}
		return out
	case abitype.Array:
		return nameElems(v.Elem, value)
	case abitype.FixedArray:
		return nameElems(v.Elem, value)
	default:
		return value
	}
}

func nameElems(elem abitype.Type, value any) any {
	if !containsStruct(elem) {
		return value
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return value
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = nameFields(elem, rv.Index(i).Interface())
	}
	return out
}

func containsStruct(t abitype.Type) bool {
	switch v := t.(type) {
	case abitype.Struct:
		return true
	case abitype.Array:
		return containsStruct(v.Elem)
	case abitype.FixedArray:
		return containsStruct(v.Elem)
	default:
		return false
	}
}

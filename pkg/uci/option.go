package uci

import (
	"fmt"
	"strconv"
)

// Option is a single UCI-exposed tunable: the GUI discovers it from the
// "uci" handshake's announced option lines and changes it with
// "setoption name <UciName> value <v>".
type Option interface {
	UciName() string
	UciString() string
	Set(value string) error
}

// IntOption is a bounded integer option (hash size, thread count,
// tunable search margins).
type IntOption struct {
	Name     string
	Min, Max int
	Value    *int
}

func (o *IntOption) UciName() string { return o.Name }

func (o *IntOption) UciString() string {
	return fmt.Sprintf("option name %s type spin default %d min %d max %d", o.Name, *o.Value, o.Min, o.Max)
}

func (o *IntOption) Set(value string) error {
	var v, err = strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("uci: option %s: %w", o.Name, err)
	}
	if v < o.Min || v > o.Max {
		return fmt.Errorf("uci: option %s: %d out of range [%d,%d]", o.Name, v, o.Min, o.Max)
	}
	*o.Value = v
	return nil
}

// BoolOption is a boolean toggle; cmd/uci exposes the search.Options
// knobs for null-move pruning, aspiration windows, singular extension
// and probcut this way.
type BoolOption struct {
	Name  string
	Value *bool
}

func (o *BoolOption) UciName() string { return o.Name }

func (o *BoolOption) UciString() string {
	return fmt.Sprintf("option name %s type check default %v", o.Name, *o.Value)
}

func (o *BoolOption) Set(value string) error {
	switch value {
	case "true":
		*o.Value = true
	case "false":
		*o.Value = false
	default:
		return fmt.Errorf("uci: option %s: invalid bool %q", o.Name, value)
	}
	return nil
}

// StringOption is a free-form text option, used here for the bitbase
// directory path.
type StringOption struct {
	Name  string
	Value *string
}

func (o *StringOption) UciName() string { return o.Name }

func (o *StringOption) UciString() string {
	return fmt.Sprintf("option name %s type string default %s", o.Name, *o.Value)
}

func (o *StringOption) Set(value string) error {
	*o.Value = value
	return nil
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bamsammich/pdd/internal/size"
)

// operandNames are the dd-style operands accepted as bare arguments
// (key=value or a bare keyword). Each one is also a regular --flag.
var operandNames = []string{
	"if", "of", "bs", "count", "skip", "seek",
	"sync", "direct", "fsync", "platform",
}

// applyOperands sets the flag behind every dd-style operand in args, so an
// operand and its --flag form are indistinguishable afterwards (including
// to Flags().Changed).
func applyOperands(fs *pflag.FlagSet, args []string) error {
	for _, arg := range args {
		key, value, hasValue := strings.Cut(arg, "=")
		if !isOperand(key) {
			return fmt.Errorf("unknown option: %s", arg)
		}
		f := fs.Lookup(key)
		if f == nil {
			return fmt.Errorf("unknown option: %s", arg)
		}
		if f.Value.Type() == "bool" {
			// Keyword operands ignore any value, as dd does.
			value = "true"
		} else if !hasValue {
			return fmt.Errorf("option %s requires a value", key)
		}
		if err := fs.Set(key, value); err != nil {
			return fmt.Errorf("invalid %s: %s", operandLabel(key), value)
		}
	}
	return nil
}

func operandLabel(key string) string {
	if key == "bs" {
		return "block size"
	}
	return key
}

func isOperand(key string) bool {
	for _, name := range operandNames {
		if key == name {
			return true
		}
	}
	return false
}

// sizeValue is a pflag.Value holding a byte or block count written with an
// optional K/M/G/T suffix. Negative values print as "auto".
type sizeValue struct {
	v *int64
}

func newSizeValue(p *int64, def int64) *sizeValue {
	*p = def
	return &sizeValue{v: p}
}

func (s *sizeValue) String() string {
	if s.v == nil {
		return "0"
	}
	if *s.v < 0 {
		return "auto"
	}
	return strconv.FormatInt(*s.v, 10)
}

func (s *sizeValue) Set(val string) error {
	n, err := size.Parse(val)
	if err != nil {
		return err
	}
	*s.v = n
	return nil
}

func (*sizeValue) Type() string { return "size" }

// Package descriptor defines the immutable parameter descriptor record
// that binds a placeholder index in a prepared statement to a semantic
// value type and either a dynamic slot (fed by the caller through
// Writer.Write) or a constant byte string bound once on first execute.
package descriptor

import (
	"fmt"

	"github.com/ansilo-data/connector-core/valuetype"
)

// Mode distinguishes a dynamic parameter (consumes caller-fed bytes on
// every execution) from a constant one (carries its encoded value
// inline and is bound once, on the first execute).
type Mode struct {
	constant bool
	bytes    []byte
}

// Dynamic returns the Mode for a parameter fed by the caller.
func Dynamic() Mode { return Mode{} }

// Constant returns the Mode for a parameter whose encoded value is
// supplied inline, using the same on-wire framing as a dynamic
// parameter's bytes (presence byte plus fixed or chunked payload).
func Constant(encoded []byte) Mode { return Mode{constant: true, bytes: encoded} }

// IsConstant reports whether the mode is Constant.
func (m Mode) IsConstant() bool { return m.constant }

// Bytes returns the inline encoded bytes for a Constant mode, or nil
// for Dynamic.
func (m Mode) Bytes() []byte { return m.bytes }

// Param is one entry of a prepared query's descriptor list. Index is
// the 1-based placeholder position; it must be unique and positive and
// must match the statement's placeholders 1:1.
type Param struct {
	Index int
	Type  valuetype.Type
	Mode  Mode
}

// Validate checks the invariants of a descriptor list: unique, positive
// indices. It does not compare the indices against the statement's
// placeholders.
func Validate(params []Param) error {
	seen := make(map[int]bool, len(params))
	for _, p := range params {
		if p.Index <= 0 {
			return fmt.Errorf("descriptor: index %d is not positive", p.Index)
		}
		if seen[p.Index] {
			return fmt.Errorf("descriptor: duplicate index %d", p.Index)
		}
		seen[p.Index] = true
	}
	return nil
}

// Split partitions params into the dynamic sub-list (in descriptor
// order, which is also parameter-feed order) and the constant sub-list
// (in descriptor order, which is bind order on first execute).
func Split(params []Param) (dynamic, constant []Param) {
	for _, p := range params {
		if p.Mode.IsConstant() {
			constant = append(constant, p)
		} else {
			dynamic = append(dynamic, p)
		}
	}
	return dynamic, constant
}

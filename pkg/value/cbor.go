package value

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode writes canonical CBOR so equal trees produce identical bytes.
var encMode cbor.EncMode

// decMode decodes untyped maps as map[string]any; state keys are always
// strings.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		DefaultMapType:    reflect.TypeOf(map[string]any(nil)),
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// MarshalCBOR encodes v. Binary values become CBOR byte strings, so unlike
// JSON the CBOR form carries payloads inline.
func (v Value) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(ToGo(v))
}

// UnmarshalCBOR decodes any CBOR data item into v.
func (v *Value) UnmarshalCBOR(data []byte) error {
	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode CBOR value: %w", err)
	}
	decoded, err := FromGo(raw)
	if err != nil {
		return fmt.Errorf("decode CBOR value: %w", err)
	}
	*v = decoded
	return nil
}

// MarshalCBOR encodes m as a CBOR map.
func (m *Map) MarshalCBOR() ([]byte, error) {
	if m == nil {
		return encMode.Marshal(nil)
	}
	return encMode.Marshal(m.ToGo())
}

// UnmarshalCBOR decodes a CBOR map into m. Keys come back sorted.
func (m *Map) UnmarshalCBOR(data []byte) error {
	m.mustWrite("UnmarshalCBOR")
	var decoded Value
	if err := decoded.UnmarshalCBOR(data); err != nil {
		return err
	}
	obj, ok := decoded.AsMap()
	if !ok {
		return fmt.Errorf("expected CBOR map, got %s", decoded.Kind())
	}
	*m = *obj
	return nil
}

package proposal

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// convertArg turns a YAML value into the Go value abi packing expects for t
func convertArg(t abi.Type, v any) (any, error) {
	rv, err := convertValue(t, v)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func convertValue(t abi.Type, v any) (reflect.Value, error) {
	switch t.T {
	case abi.AddressTy:
		s, ok := v.(string)
		if !ok || !common.IsHexAddress(s) {
			return reflect.Value{}, fmt.Errorf("expected an address, got %v", v)
		}
		return reflect.ValueOf(common.HexToAddress(s)), nil

	case abi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected a bool, got %v", v)
		}
		return reflect.ValueOf(b), nil

	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected a string, got %v", v)
		}
		return reflect.ValueOf(s), nil

	case abi.IntTy, abi.UintTy:
		return convertInteger(t, v)

	case abi.BytesTy:
		b, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(b) != t.Size {
			return reflect.Value{}, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		out := reflect.New(t.GetType()).Elem()
		reflect.Copy(out, reflect.ValueOf(b))
		return out, nil

	case abi.SliceTy, abi.ArrayTy:
		items, ok := v.([]any)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected a list, got %v", v)
		}
		var out reflect.Value
		if t.T == abi.SliceTy {
			out = reflect.MakeSlice(t.GetType(), len(items), len(items))
		} else {
			if len(items) != t.Size {
				return reflect.Value{}, fmt.Errorf("expected %d items, got %d", t.Size, len(items))
			}
			out = reflect.New(t.GetType()).Elem()
		}
		for i, item := range items {
			ev, err := convertValue(*t.Elem, item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case abi.TupleTy:
		fields, ok := v.(map[string]any)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected a mapping, got %v", v)
		}
		out := reflect.New(t.GetType()).Elem()
		for i, name := range t.TupleRawNames {
			raw, ok := fields[name]
			if !ok {
				return reflect.Value{}, fmt.Errorf("missing tuple field %q", name)
			}
			ev, err := convertValue(*t.TupleElems[i], raw)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("field %s: %w", name, err)
			}
			out.Field(i).Set(ev)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("unsupported argument type %s", t.String())
}

func convertInteger(t abi.Type, v any) (reflect.Value, error) {
	n, err := toBigInt(v)
	if err != nil {
		return reflect.Value{}, err
	}
	if t.T == abi.UintTy && n.Sign() < 0 {
		return reflect.Value{}, fmt.Errorf("%s cannot be negative", t.String())
	}

	typ := t.GetType()
	if typ == bigIntType {
		if !fitsBits(t, n) {
			return reflect.Value{}, fmt.Errorf("%s overflows %s", n, t.String())
		}
		return reflect.ValueOf(n), nil
	}
	out := reflect.New(typ).Elem()
	if t.T == abi.UintTy {
		if !n.IsUint64() || out.OverflowUint(n.Uint64()) {
			return reflect.Value{}, fmt.Errorf("%s overflows %s", n, t.String())
		}
		out.SetUint(n.Uint64())
		return out, nil
	}
	if !n.IsInt64() || out.OverflowInt(n.Int64()) {
		return reflect.Value{}, fmt.Errorf("%s overflows %s", n, t.String())
	}
	out.SetInt(n.Int64())
	return out, nil
}

// fitsBits reports whether n is representable in t's bit width
func fitsBits(t abi.Type, n *big.Int) bool {
	if t.T == abi.UintTy {
		return n.BitLen() <= t.Size
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	return n.Cmp(limit) < 0 && n.Cmp(new(big.Int).Neg(limit)) >= 0
}

// toBigInt accepts YAML integers and decimal, scientific or 0x-prefixed strings
func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return nil, fmt.Errorf("%v is not an exact integer, quote large numbers", n)
		}
		return big.NewInt(int64(n)), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), "_", "")
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			out, ok := new(big.Int).SetString(s[2:], 16)
			if !ok {
				return nil, fmt.Errorf("invalid hex number %q", n)
			}
			return out, nil
		}
		r, ok := new(big.Rat).SetString(s)
		if !ok || !r.IsInt() {
			return nil, fmt.Errorf("invalid integer %q", n)
		}
		return new(big.Int).Set(r.Num()), nil
	}
	return nil, fmt.Errorf("expected a number, got %v", v)
}

func toBytes(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected 0x-prefixed hex, got %v", v)
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

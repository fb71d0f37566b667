package utils

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"unicode/utf16"
)

func Filter[T any](items []T, keep func(T) bool) []T {
	var filtered []T
	for _, item := range items {
		if keep(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func Hexify(barray []byte) string {
	return hex.EncodeToString(barray)
}

func Bytereverse(barray []byte) []byte {
	reversed := make([]byte, len(barray))
	for idx, val := range barray {
		reversed[len(barray)-1-idx] = val
	}
	return reversed
}

// StringifyGUID renders a mixed-endian GUID the way partition tables store
// them: the first three groups little-endian, the last two as written.
func StringifyGUID(barray []byte) string {
	if len(barray) < 16 {
		return Hexify(barray)
	}
	groups := []string{
		Hexify(Bytereverse(barray[0:4])),
		Hexify(Bytereverse(barray[4:6])),
		Hexify(Bytereverse(barray[6:8])),
		Hexify(barray[8:10]),
		Hexify(barray[10:16]),
	}
	return strings.Join(groups, "-")
}

// DecodeUTF16 turns a UTF-16LE byte sequence into a string, stopping at the
// first NUL code unit.
func DecodeUTF16(barray []byte) string {
	units := make([]uint16, 0, len(barray)/2)
	for idx := 0; idx+1 < len(barray); idx += 2 {
		unit := binary.LittleEndian.Uint16(barray[idx : idx+2])
		if unit == 0 {
			break
		}
		units = append(units, unit)
	}
	return string(utf16.Decode(units))
}

// Unmarshal fills a struct from little-endian binary data, walking exported
// fields in declaration order. Supported kinds: unsigned ints, byte arrays,
// and nested structs laid out contiguously.
func Unmarshal(data []byte, v interface{}) error {
	structValPtr := reflect.ValueOf(v)
	structType := reflect.TypeOf(v)
	if structType.Kind() != reflect.Ptr || structType.Elem().Kind() != reflect.Struct {
		return errors.New("must be a pointer to a struct")
	}
	_, err := unmarshalStruct(data, structValPtr.Elem())
	return err
}

func unmarshalStruct(data []byte, structVal reflect.Value) (int, error) {
	idx := 0
	for i := 0; i < structVal.NumField(); i++ {
		field := structVal.Field(i)
		switch field.Kind() {
		case reflect.Uint8:
			if idx+1 > len(data) {
				return idx, errors.New("data exhausted")
			}
			field.SetUint(uint64(data[idx]))
			idx += 1
		case reflect.Uint16:
			var temp uint16
			if err := readInto(data, idx, 2, &temp); err != nil {
				return idx, err
			}
			field.SetUint(uint64(temp))
			idx += 2
		case reflect.Uint32:
			var temp uint32
			if err := readInto(data, idx, 4, &temp); err != nil {
				return idx, err
			}
			field.SetUint(uint64(temp))
			idx += 4
		case reflect.Uint64:
			var temp uint64
			if err := readInto(data, idx, 8, &temp); err != nil {
				return idx, err
			}
			field.SetUint(temp)
			idx += 8
		case reflect.Array:
			length := field.Len()
			if idx+length > len(data) {
				return idx, errors.New("data exhausted")
			}
			for j := 0; j < length; j++ {
				field.Index(j).SetUint(uint64(data[idx+j]))
			}
			idx += length
		case reflect.Struct:
			consumed, err := unmarshalStruct(data[idx:], field)
			if err != nil {
				return idx, err
			}
			idx += consumed
		default:
			return idx, errors.New("unsupported field kind " + field.Kind().String())
		}
	}
	return idx, nil
}

func readInto(data []byte, idx int, size int, v interface{}) error {
	if idx+size > len(data) {
		return errors.New("data exhausted")
	}
	return binary.Read(bytes.NewBuffer(data[idx:idx+size]), binary.LittleEndian, v)
}

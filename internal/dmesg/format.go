package dmesg

import (
	"math/bits"
	"strconv"
)

const hexDigits = "0123456789abcdef"

// nullString replaces a missing %s argument.
const nullString = "(null)"

// Sink receives rendered bytes one at a time.
type Sink interface {
	AppendByte(b byte)
}

type argKind uint8

const (
	kindInt argKind = iota + 1
	kindPtr
	kindStr
	kindNull
)

// Arg is one formatter argument: a signed integer, a pointer-sized value,
// or a string reference that may be null.
type Arg struct {
	kind argKind
	num  int64
	ptr  uint64
	str  string
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Int wraps a signed integer for %d and %x.
func Int[T signed](v T) Arg {
	return Arg{kind: kindInt, num: int64(v)}
}

// Ptr wraps a pointer-sized value for %p.
func Ptr(v uintptr) Arg {
	return Arg{kind: kindPtr, ptr: uint64(v)}
}

// Str wraps a string for %s.
func Str(s string) Arg {
	return Arg{kind: kindStr, str: s}
}

// StrPtr wraps an optional string for %s. A nil pointer renders as "(null)".
func StrPtr(s *string) Arg {
	if s == nil {
		return Null()
	}

	return Str(*s)
}

// Null is an absent string argument.
func Null() Arg {
	return Arg{kind: kindNull}
}

// Render writes the timestamp prefix, the expanded template and a trailing
// newline to dst. Supported specifiers are %d, %x, %p, %s and %%. Unknown
// specifiers, missing arguments and arguments of the wrong kind are echoed
// literally; an argument of the wrong kind is still consumed.
func Render(dst Sink, tick uint64, template string, args ...Arg) {
	appendString(dst, "[Time: ")
	appendUint(dst, tick, 10)
	appendString(dst, " ticks]: ")

	next := 0

	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' {
			dst.AppendByte(c)
			continue
		}

		i++
		if i >= len(template) {
			dst.AppendByte('%')
			break
		}

		verb := template[i]
		switch verb {
		case '%':
			dst.AppendByte('%')
			continue
		case 'd', 'x', 'p', 's':
		default:
			dst.AppendByte('%')
			dst.AppendByte(verb)
			continue
		}

		if next >= len(args) {
			dst.AppendByte('%')
			dst.AppendByte(verb)
			continue
		}

		arg := args[next]
		next++

		if !renderArg(dst, verb, arg) {
			dst.AppendByte('%')
			dst.AppendByte(verb)
		}
	}

	dst.AppendByte('\n')
}

// renderArg formats one argument. It reports false if arg cannot satisfy verb.
func renderArg(dst Sink, verb byte, arg Arg) bool {
	switch verb {
	case 'd', 'x':
		var n int64

		switch arg.kind {
		case kindInt:
			n = arg.num
		case kindPtr:
			n = int64(arg.ptr)
		default:
			return false
		}

		base := 10
		if verb == 'x' {
			base = 16
		}

		appendInt(dst, n, base)
	case 'p':
		var p uint64

		switch arg.kind {
		case kindPtr:
			p = arg.ptr
		case kindInt:
			p = uint64(arg.num)
		default:
			return false
		}

		appendPtr(dst, p)
	case 's':
		switch arg.kind {
		case kindStr:
			appendString(dst, arg.str)
		case kindNull:
			appendString(dst, nullString)
		default:
			return false
		}
	}

	return true
}

func appendString(dst Sink, s string) {
	for i := range len(s) {
		dst.AppendByte(s[i])
	}
}

func appendUint(dst Sink, v uint64, base int) {
	var scratch [64]byte

	for _, b := range strconv.AppendUint(scratch[:0], v, base) {
		dst.AppendByte(b)
	}
}

// appendInt renders n with a leading '-' when negative. The magnitude of
// math.MinInt64 is taken through uint64 wraparound.
func appendInt(dst Sink, n int64, base int) {
	u := uint64(n)
	if n < 0 {
		dst.AppendByte('-')
		u = uint64(-n)
	}

	appendUint(dst, u, base)
}

// appendPtr renders p as 0x followed by a zero-padded, pointer-width hex value.
func appendPtr(dst Sink, p uint64) {
	dst.AppendByte('0')
	dst.AppendByte('x')

	for shift := bits.UintSize - 4; shift >= 0; shift -= 4 {
		dst.AppendByte(hexDigits[(p>>uint(shift))&0xf])
	}
}

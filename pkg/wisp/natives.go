package wisp

import (
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"wisp/internal/interp"
)

// registerDemoNatives installs the sample native functions
// SPEC_FULL.md's native-bridge module ships with the CLI: two
// encoding-library-backed string converters, a wall-clock reading, and
// a generic string-length helper. They exist to exercise the native
// bridge (§4.4) end to end, not as a standard library.
func registerDemoNatives(ip *interp.Interpreter) error {
	start := time.Now()

	clockFn := func(ctx *interp.Context, argc int) interp.Value {
		return interp.AsDouble(time.Since(start).Seconds())
	}

	natives := map[string]interp.NativeFunc{
		"utf16_encode": nativeUTF16Encode,
		"utf16_decode": nativeUTF16Decode,
		"clock":        clockFn,
		"len":          nativeLen,
	}

	for name, fn := range natives {
		if err := ip.RegisterNative(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// nativeUTF16Encode converts a UTF-8 Wisp string to raw little-endian
// UTF-16 bytes, returned as a String whose bytes are not themselves
// valid UTF-8 text — demonstrating that native code can exchange
// non-UTF-8 byte payloads with a host library (golang.org/x/text),
// grounded on go-dws's decodeUTF16 (internal/interp/encoding.go),
// mirrored in the opposite direction.
func nativeUTF16Encode(ctx *interp.Context, argc int) interp.Value {
	s := ctx.GetString(0)
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, _, err := transform.String(encoder, s)
	if err != nil {
		return interp.AsString("")
	}
	return interp.AsString(out)
}

// nativeUTF16Decode reverses nativeUTF16Encode, turning a raw UTF-16LE
// byte string back into UTF-8 text.
func nativeUTF16Decode(ctx *interp.Context, argc int) interp.Value {
	s := ctx.GetString(0)
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, _, err := transform.String(decoder, s)
	if err != nil {
		return interp.AsString("")
	}
	return interp.AsString(out)
}

// nativeLen returns the rune count of its string argument. Array and
// Map length is already exposed through their own .size() method
// (§4.5's GetDef table); len demonstrates the native bridge with a
// plain string function instead of duplicating that surface.
func nativeLen(ctx *interp.Context, argc int) interp.Value {
	return interp.AsInt(utf8.RuneCountInString(ctx.GetString(0)))
}

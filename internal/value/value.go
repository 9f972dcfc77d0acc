package value

import (
	"fmt"
	"math/big"
	"strconv"
)

// Kind identifies which alternative of the tagged value union is populated.
type Kind byte

// Value type codes, one byte each, per the wire contract. D uses a hex
// textual form for lossless round-trip of the underlying float64 bits.
const (
	KindBoolean    Kind = 'B'
	KindDouble     Kind = 'D'
	KindSigned64   Kind = 'L'
	KindString     Kind = 'S'
	KindBytes      Kind = 'Y'
	KindTuple      Kind = 'T'
	KindDict       Kind = 'H'
	KindRational   Kind = 'Q'
	KindBigRat     Kind = 'G'
	KindComplex    Kind = 'C'
	KindEncrypted  Kind = 'X'
	KindSigned     Kind = 'N'
	KindState      Kind = 'V'
	KindObject     Kind = 'O'
	kindNull       Kind = 0
)

// allKinds lists every recognized code in a stable order, used to compute
// SupportedValueTypeCodes.
var allKinds = []Kind{
	KindBoolean, KindDouble, KindSigned64, KindString, KindBytes,
	KindTuple, KindDict, KindRational, KindBigRat, KindComplex,
	KindEncrypted, KindSigned, KindState, KindObject,
}

// Rational is a small exact fraction.
type Rational struct {
	Num int64
	Den int64
}

// BigRational is an arbitrary-precision fraction.
type BigRational struct {
	Num *big.Int
	Den *big.Int
}

// Complex is a real/imaginary pair (kept as two float64s rather than the
// built-in complex128 so JSON round-trips without a custom codec at every
// call site).
type Complex struct {
	Real float64
	Imag float64
}

// Encrypted carries an opaque ciphertext plus the algorithm name that
// produced it; the core never decrypts, it only stores and replays bytes.
type Encrypted struct {
	Algorithm string
	Payload   []byte
}

// Signed carries an arbitrary payload plus a detached signature; like
// Encrypted, the core treats both as opaque.
type Signed struct {
	Payload   []byte
	Signature []byte
}

// State is a point's state-group (code, name) pair. Either Code or Name may
// be the authoritative field depending on how the update arrived; the state
// group resolver fills in the other (spec.md §4.8).
type State struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// Value is the tagged union over every admissible point value type. Exactly
// one of the typed fields is meaningful, selected by Kind; Kind == 0 denotes
// the null value (distinct from an absent Value, which is represented by a
// nil *Value at the call site).
type Value struct {
	Kind Kind

	Boolean   bool
	Double    float64
	Signed64  int64
	String    string
	Bytes     []byte
	Tuple     []Value
	Dict      map[string]Value
	Rational  Rational
	BigRat    BigRational
	Complex   Complex
	Encrypted Encrypted
	Signed    Signed
	State     State
	Object    any
}

// IsNull reports whether v represents the tombstone-eligible null value.
func (v Value) IsNull() bool { return v.Kind == kindNull }

// Null returns the null value.
func Null() Value { return Value{Kind: kindNull} }

func Bool(b bool) Value             { return Value{Kind: KindBoolean, Boolean: b} }
func Double(f float64) Value        { return Value{Kind: KindDouble, Double: f} }
func Signed64(n int64) Value        { return Value{Kind: KindSigned64, Signed64: n} }
func Str(s string) Value            { return Value{Kind: KindString, String: s} }
func ByteString(b []byte) Value     { return Value{Kind: KindBytes, Bytes: b} }
func TupleOf(vs ...Value) Value     { return Value{Kind: KindTuple, Tuple: vs} }
func DictOf(m map[string]Value) Value { return Value{Kind: KindDict, Dict: m} }
func RationalOf(num, den int64) Value { return Value{Kind: KindRational, Rational: Rational{Num: num, Den: den}} }
func BigRationalOf(num, den *big.Int) Value {
	return Value{Kind: KindBigRat, BigRat: BigRational{Num: num, Den: den}}
}
func ComplexOf(re, im float64) Value { return Value{Kind: KindComplex, Complex: Complex{Real: re, Imag: im}} }
func EncryptedOf(alg string, payload []byte) Value {
	return Value{Kind: KindEncrypted, Encrypted: Encrypted{Algorithm: alg, Payload: payload}}
}
func SignedOf(payload, sig []byte) Value {
	return Value{Kind: KindSigned, Signed: Signed{Payload: payload, Signature: sig}}
}
func StateOf(code int, name string) Value { return Value{Kind: KindState, State: State{Code: code, Name: name}} }
func ObjectOf(o any) Value                { return Value{Kind: KindObject, Object: o} }

// TypeCode returns the single-byte wire code for v's kind, or 0 for null.
func (v Value) TypeCode() byte { return byte(v.Kind) }

// SupportedValueTypeCodes returns the concatenation of every type code this
// build admits, in the stable order allKinds defines. A backend that only
// supports a subset would return a filtered subset; the in-process core
// always supports all of them.
func SupportedValueTypeCodes() string {
	b := make([]byte, 0, len(allKinds))
	for _, k := range allKinds {
		b = append(b, byte(k))
	}
	return string(b)
}

// DoubleHex renders a float64 as the hex textual form used by the 'D' code
// for lossless round-trip across text-based wire forms.
func DoubleHex(f float64) string {
	return strconv.FormatFloat(f, 'x', -1, 64)
}

// ParseDoubleHex parses the hex textual form produced by DoubleHex.
func ParseDoubleHex(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("value: invalid double hex form %q: %w", s, err)
	}
	return f, nil
}

// ValidTypeCode reports whether c is one of the recognized codes.
func ValidTypeCode(c byte) bool {
	for _, k := range allKinds {
		if byte(k) == c {
			return true
		}
	}
	return false
}

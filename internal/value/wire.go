package value

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// MarshalJSON renders a PointUUID as its String() form so it can be used
// directly as a JSON string in request/response bodies and as a JSON
// object key.
func (u PointUUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON parses the String() form produced by MarshalJSON.
func (u *PointUUID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePointUUID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// wireValue is the JSON wire form of Value: a single-character type code
// (per spec.md §6.3) plus whichever field that code populates.
type wireValue struct {
	Type      string  `json:"type"`
	Boolean   *bool   `json:"boolean,omitempty"`
	Double    *string `json:"double,omitempty"` // hex form, see DoubleHex
	Signed64  *int64  `json:"signed64,omitempty"`
	String    *string `json:"string,omitempty"`
	Bytes     []byte  `json:"bytes,omitempty"` // encoding/json base64-encodes []byte natively
	Tuple     []Value `json:"tuple,omitempty"`
	Dict      map[string]Value `json:"dict,omitempty"`
	RationalNum *int64 `json:"rationalNum,omitempty"`
	RationalDen *int64 `json:"rationalDen,omitempty"`
	BigRatNum *string `json:"bigRatNum,omitempty"` // decimal text form
	BigRatDen *string `json:"bigRatDen,omitempty"`
	Real      *float64 `json:"real,omitempty"`
	Imag      *float64 `json:"imag,omitempty"`
	Algorithm *string `json:"algorithm,omitempty"`
	Payload   []byte  `json:"payload,omitempty"`
	Signature []byte  `json:"signature,omitempty"`
	StateCode *int    `json:"stateCode,omitempty"`
	StateName *string `json:"stateName,omitempty"`
}

// MarshalJSON encodes v in its tagged-union wire form. KindObject has no
// portable wire representation and is rejected: it exists for in-process
// use only (spec.md §6.3's enumerated tagged union is closed).
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == kindNull {
		return json.Marshal(wireValue{Type: "\x00"})
	}

	w := wireValue{Type: string(rune(v.Kind))}
	switch v.Kind {
	case KindBoolean:
		w.Boolean = &v.Boolean
	case KindDouble:
		s := DoubleHex(v.Double)
		w.Double = &s
	case KindSigned64:
		w.Signed64 = &v.Signed64
	case KindString:
		w.String = &v.String
	case KindBytes:
		w.Bytes = v.Bytes
	case KindTuple:
		w.Tuple = v.Tuple
	case KindDict:
		w.Dict = v.Dict
	case KindRational:
		w.RationalNum = &v.Rational.Num
		w.RationalDen = &v.Rational.Den
	case KindBigRat:
		num := v.BigRat.Num.String()
		den := v.BigRat.Den.String()
		w.BigRatNum = &num
		w.BigRatDen = &den
	case KindComplex:
		w.Real = &v.Complex.Real
		w.Imag = &v.Complex.Imag
	case KindEncrypted:
		w.Algorithm = &v.Encrypted.Algorithm
		w.Payload = v.Encrypted.Payload
	case KindSigned:
		w.Payload = v.Signed.Payload
		w.Signature = v.Signed.Signature
	case KindState:
		w.StateCode = &v.State.Code
		w.StateName = &v.State.Name
	case KindObject:
		return nil, fmt.Errorf("value: KindObject has no wire form")
	default:
		return nil, fmt.Errorf("value: unrecognized kind %q", v.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (v *Value) UnmarshalJSON(b []byte) error {
	var w wireValue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if len(w.Type) == 0 {
		return fmt.Errorf("value: missing type code")
	}
	code := Kind(w.Type[0])
	if code == kindNull {
		*v = Null()
		return nil
	}
	if !ValidTypeCode(byte(code)) {
		return fmt.Errorf("%w %q", ErrUnknownTypeCode, w.Type)
	}

	switch code {
	case KindBoolean:
		if w.Boolean == nil {
			return fmt.Errorf("value: boolean field missing for type B")
		}
		*v = Bool(*w.Boolean)
	case KindDouble:
		if w.Double == nil {
			return fmt.Errorf("value: double field missing for type D")
		}
		f, err := ParseDoubleHex(*w.Double)
		if err != nil {
			return err
		}
		*v = Double(f)
	case KindSigned64:
		if w.Signed64 == nil {
			return fmt.Errorf("value: signed64 field missing for type L")
		}
		*v = Signed64(*w.Signed64)
	case KindString:
		if w.String == nil {
			return fmt.Errorf("value: string field missing for type S")
		}
		*v = Str(*w.String)
	case KindBytes:
		*v = ByteString(w.Bytes)
	case KindTuple:
		*v = TupleOf(w.Tuple...)
	case KindDict:
		*v = DictOf(w.Dict)
	case KindRational:
		if w.RationalNum == nil || w.RationalDen == nil {
			return fmt.Errorf("value: rationalNum/rationalDen missing for type Q")
		}
		*v = RationalOf(*w.RationalNum, *w.RationalDen)
	case KindBigRat:
		if w.BigRatNum == nil || w.BigRatDen == nil {
			return fmt.Errorf("value: bigRatNum/bigRatDen missing for type G")
		}
		num, ok := new(big.Int).SetString(*w.BigRatNum, 10)
		if !ok {
			return fmt.Errorf("value: invalid bigRatNum %q", *w.BigRatNum)
		}
		den, ok := new(big.Int).SetString(*w.BigRatDen, 10)
		if !ok {
			return fmt.Errorf("value: invalid bigRatDen %q", *w.BigRatDen)
		}
		*v = BigRationalOf(num, den)
	case KindComplex:
		if w.Real == nil || w.Imag == nil {
			return fmt.Errorf("value: real/imag missing for type C")
		}
		*v = ComplexOf(*w.Real, *w.Imag)
	case KindEncrypted:
		if w.Algorithm == nil {
			return fmt.Errorf("value: algorithm missing for type X")
		}
		*v = EncryptedOf(*w.Algorithm, w.Payload)
	case KindSigned:
		*v = SignedOf(w.Payload, w.Signature)
	case KindState:
		if w.StateCode == nil || w.StateName == nil {
			return fmt.Errorf("value: stateCode/stateName missing for type V")
		}
		*v = StateOf(*w.StateCode, *w.StateName)
	case KindObject:
		return fmt.Errorf("value: KindObject has no wire form")
	}
	return nil
}

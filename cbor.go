// Package-internal CBOR modes, wrapping github.com/fxamacker/cbor/v2.
//
// 1. CBOR is encoded using Core Deterministic Encoding defined in
//    RFC 8949, which obsoletes Canonical CBOR defined in RFC 7049.
// 2. CBOR decoder detects and rejects duplicate map keys, which is
//    an important requirement in security sensitive applications.
//
// NOTE: Sorting is slower than not sorting. Detecting duplicate keys is
// slower than not detecting them.  Please don't use this to compare
// speed against other CBOR libraries using less secure options.

package otree

import (
	"github.com/fxamacker/cbor/v2" // imports as cbor
)

// Place limits on number of array elements to improve security.
const maxDecodedArrayElements = 2147483647
const maxDecodedMapPairs = 2147483647

var (

	// encOptions specifies how CBOR should be encoded.
	encOptions = cbor.EncOptions{
		InfConvert:    cbor.InfConvertFloat16,
		IndefLength:   cbor.IndefLengthForbidden,
		NaNConvert:    cbor.NaNConvert7e00,
		ShortestFloat: cbor.ShortestFloat16,
		Sort:          cbor.SortCoreDeterministic,
		TagsMd:        cbor.TagsAllowed,
		Time:          cbor.TimeUnix,
	}

	// decOptions specifies how CBOR should be decoded.
	decOptions = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		IndefLength:       cbor.IndefLengthForbidden,
		MaxArrayElements:  maxDecodedArrayElements,
		MaxMapPairs:       maxDecodedMapPairs,
		TagsMd:            cbor.TagsAllowed,
		TimeTag:           cbor.DecTagIgnored,
	}

	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = encOptions.EncMode()
	if err != nil {
		panic(err)
	}

	decMode, err = decOptions.DecMode()
	if err != nil {
		panic(err)
	}
}

// ctrattack.go: CTR keystream recovery through random-access edits, and
// CTR bit-flipping.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// RecoverCTRPlaintext decrypts a CTR ciphertext through an oracle that can
// re-encrypt at an offset. Editing the whole ciphertext to zeros returns the
// raw keystream, and keystream ⊕ ciphertext is the plaintext. Works for any
// length, block aligned or not.
func RecoverCTRPlaintext(o EditOracle, ciphertext []byte) ([]byte, error) {
	if err := requireDeterministic(o); err != nil {
		return nil, err
	}
	keystream, err := o.Edit(ciphertext, 0, make([]byte, len(ciphertext)))
	if err != nil {
		return nil, goerrors.Wrap(err, ErrCodeOracle, "edit: oracle query failed")
	}
	if len(keystream) != len(ciphertext) {
		return nil, brokenOracle("edit",
			fmt.Sprintf("edit returned %d bytes for a %d byte ciphertext", len(keystream), len(ciphertext)))
	}
	return XOR(keystream, ciphertext)
}

// DetectCTRPrefixSize returns the length of a CTR oracle's hidden prefix:
// the first byte position at which the encryptions of [byte0] and [byte1]
// differ.
func DetectCTRPrefixSize(o Oracle, byte0, byte1 byte) (int, error) {
	if err := requireDeterministic(o); err != nil {
		return 0, err
	}
	if byte0 == byte1 {
		return 0, brokenOracle("ctr prefix", "filler bytes must differ")
	}
	a, err := oracleQuery(o, "ctr prefix", []byte{byte0})
	if err != nil {
		return 0, err
	}
	b, err := oracleQuery(o, "ctr prefix", []byte{byte1})
	if err != nil {
		return 0, err
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return i, nil
		}
	}
	return 0, brokenOracle("ctr prefix", "oracle produced same output for different input")
}

// InjectCTR forges a CTR ciphertext whose plaintext carries want where the
// input would be. The input is len(want) filler bytes, and since CTR xors
// byte for byte, ciphertext ⊕ filler ⊕ want decrypts to want.
func InjectCTR(o Oracle, filler byte, want []byte) ([]byte, error) {
	prefixSize, err := DetectCTRPrefixSize(o, filler, filler^0x01)
	if err != nil {
		return nil, err
	}
	known := repeat(filler, len(want))
	ct, err := oracleQuery(o, "ctr inject", known)
	if err != nil {
		return nil, err
	}
	if len(ct) < prefixSize+len(want) {
		return nil, brokenOracle("ctr inject", "ciphertext shorter than prefix plus input")
	}

	delta, err := XOR(known, want)
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), ct...)
	if err := XORInPlace(out[prefixSize:prefixSize+len(want)], delta); err != nil {
		return nil, err
	}
	return out, nil
}

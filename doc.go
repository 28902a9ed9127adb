// Package pythia implements AES block cipher modes together with the
// chosen-plaintext attacks that break them when they are misused.
//
// The package has three parts built on one set of primitives:
//   - Primitives: AES-ECB, AES-CBC and AES-CTR (two counter layouts),
//     PKCS#7 padding, XOR, key and IV generation, Argon2id/HKDF/PBKDF2 key
//     derivation and a chunked CTR stream format
//   - Oracles: an encryption Context that hides a key, an IV policy and
//     secret bytes around the caller's input, plus the classic victims
//     built on it (cookie, profile, IV = key, padding oracle, coin flip)
//   - Attacks: block size, ECB and padding detection, prefix and suffix
//     measurement, byte-at-a-time suffix recovery, CBC and CTR bit
//     flipping, ECB cut-and-paste, CTR edit keystream recovery, fixed-nonce
//     CTR keystream recovery, IV = key recovery and CBC padding oracle
//     decryption
//
// Attacks only see an Oracle, so anything that encrypts on request can be
// analyzed: a local Context, an OracleFunc, or a remote oracle reached via
// the remote subpackage.
//
// # Quick Start
//
// Recover the secret suffix of an ECB oracle:
//
//	ctx, err := pythia.NewContext(&pythia.ContextConfig{
//		Key:     key,
//		Mode:    pythia.ModeECB,
//		Padding: pythia.PaddingPKCS7,
//		Suffix:  secret,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	report, err := pythia.NewAnalyzer(ctx, nil).Run()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("%q\n", report.Suffix)
//
// # Modes
//
// The mode functions work on whole blocks and never pad:
//
//	padded, _ := pythia.PadPKCS7(plaintext, pythia.BlockSize)
//	ct, _ := pythia.EncryptCBC(key, iv, padded)
//	pt, _ := pythia.DecryptCBC(key, iv, ct)
//	plaintext, _ = pythia.UnpadPKCS7(pt, pythia.BlockSize)
//
// CTR works on any length and can start at any byte offset:
//
//	ct, _ := pythia.XORKeyStreamAt(key, iv, pythia.CounterLittleEndian64, data, 1000)
//
// # Errors
//
// Every error wraps one of the package sentinels (ErrInvalidKeySize,
// ErrInvalidPaddingByte, ErrNondeterministicOracle, ...) and a structured
// github.com/agilira/go-errors error carrying a stable code, so both
// errors.Is and code based handling work:
//
//	_, err := pythia.UnpadPKCS7(data, 16)
//	var bad *pythia.PaddingByteError
//	if errors.As(err, &bad) {
//		log.Printf("bad byte at %d", bad.Offset)
//	}
//
// # Registry
//
// An OracleRegistry names oracles so they can be served and health checked.
// Oracles backed by external processes are loaded through
// github.com/agilira/go-plugins.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package pythia

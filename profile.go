// profile.go: ECB user-profile victim for the cut-and-paste attack.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"net/url"
	"strconv"
	"strings"

	goerrors "github.com/agilira/go-errors"
)

// Profile is the record encoded by ProfileOracle.
type Profile struct {
	Email string
	UID   int
	Role  string
}

// ProfileFor returns the default profile for email.
func ProfileFor(email string) Profile {
	return Profile{Email: email, UID: 10, Role: "user"}
}

// profileEscaper quotes the metacharacters of the profile encoding. Every
// other byte is passed through.
var profileEscaper = strings.NewReplacer("%", "%25", "&", "%26", "=", "%3D")

// EscapeProfileValue quotes '%', '&' and '=' in s.
func EscapeProfileValue(s string) string {
	return profileEscaper.Replace(s)
}

// Encode returns email=<escaped>&uid=<uid>&role=<escaped>, fields in that order.
func (p Profile) Encode() string {
	return "email=" + EscapeProfileValue(p.Email) +
		"&uid=" + strconv.Itoa(p.UID) +
		"&role=" + EscapeProfileValue(p.Role)
}

// ParseProfile decodes an encoded profile. Every field must be present;
// a repeated field keeps its last value.
func ParseProfile(s string) (Profile, error) {
	fields := make(map[string]string, 3)
	for _, pair := range strings.Split(s, "&") {
		key, value, _ := strings.Cut(pair, "=")
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return Profile{}, richError(&InvalidTextError{Plaintext: []byte(s)},
				goerrors.Wrap(err, ErrCodeInvalidText, "malformed profile"))
		}
		fields[key] = decoded
	}
	for _, field := range []string{"email", "uid", "role"} {
		if _, ok := fields[field]; !ok {
			return Profile{}, richError(&InvalidTextError{Plaintext: []byte(s)},
				goerrors.New(ErrCodeInvalidText, "profile is missing "+field))
		}
	}
	uid, err := strconv.Atoi(fields["uid"])
	if err != nil {
		return Profile{}, richError(&InvalidTextError{Plaintext: []byte(s)},
			goerrors.Wrap(err, ErrCodeInvalidText, "profile uid is not a number"))
	}
	return Profile{Email: fields["email"], UID: uid, Role: fields["role"]}, nil
}

// ProfileOracle encrypts ProfileFor(email).Encode() under ECB with PKCS#7.
// The caller controls the email, minus the quoted metacharacters.
type ProfileOracle struct {
	ctx *Context
}

// NewProfileOracle returns a profile oracle under key.
func NewProfileOracle(key Key) (*ProfileOracle, error) {
	encoded := ProfileFor("").Encode()
	ctx, err := NewContext(&ContextConfig{
		Key:     key,
		Mode:    ModeECB,
		Padding: PaddingPKCS7,
		Prefix:  []byte("email="),
		Suffix:  []byte(encoded[len("email="):]),
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOracle{ctx: ctx}, nil
}

// Encrypt encrypts the profile of the given email.
func (p *ProfileOracle) Encrypt(email []byte) ([]byte, error) {
	return p.ctx.Encrypt([]byte(EscapeProfileValue(string(email))))
}

// Deterministic is always true: ECB has no IV.
func (p *ProfileOracle) Deterministic() bool { return true }

// DecryptProfile decrypts, unpads and parses a profile ciphertext.
func (p *ProfileOracle) DecryptProfile(ciphertext []byte) (Profile, error) {
	plaintext, err := p.ctx.Decrypt(ciphertext)
	if err != nil {
		return Profile{}, err
	}
	return ParseProfile(string(plaintext))
}

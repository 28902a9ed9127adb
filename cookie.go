// cookie.go: Cookie-string victim for the CBC and CTR bit-flipping attacks.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"net/url"
	"strings"
)

// Fixed cookie data surrounding the attacker's userdata.
const (
	CookiePrefix = "comment1=cooking%20MCs;userdata="
	CookieSuffix = ";comment2=%20like%20a%20pound%20of%20bacon"
)

// Cookie is one decoded key=value pair.
type Cookie struct {
	Key   string
	Value string
}

// CookieOracle encrypts CookiePrefix ‖ escape(userdata) ‖ CookieSuffix
// under a fixed key and IV. Escaping keeps ';' and '=' out of the input,
// so an admin=true pair can only appear through a forgery.
type CookieOracle struct {
	ctx *Context
}

// NewCookieOracle returns a cookie oracle for mode. ECB and CBC are PKCS#7
// padded; CTR is not.
func NewCookieOracle(key Key, iv IV, mode Mode) (*CookieOracle, error) {
	padding := PaddingPKCS7
	if mode == ModeCTR {
		padding = PaddingNone
	}
	ctx, err := NewContext(&ContextConfig{
		Key:     key,
		Mode:    mode,
		Padding: padding,
		IV:      &iv,
		Prefix:  []byte(CookiePrefix),
		Suffix:  []byte(CookieSuffix),
	})
	if err != nil {
		return nil, err
	}
	return &CookieOracle{ctx: ctx}, nil
}

// NewRandomCookieOracle returns a cookie oracle with a random AES-128 key and IV.
func NewRandomCookieOracle(mode Mode) (*CookieOracle, error) {
	key, err := GenerateKey(AES128)
	if err != nil {
		return nil, err
	}
	iv, err := GenerateIV()
	if err != nil {
		return nil, err
	}
	return NewCookieOracle(key, iv, mode)
}

// EscapeCookieValue percent-encodes s so it cannot contain ';', '=' or spaces.
func EscapeCookieValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Encrypt escapes userdata and encrypts the full cookie string.
func (c *CookieOracle) Encrypt(userdata []byte) ([]byte, error) {
	return c.ctx.Encrypt([]byte(EscapeCookieValue(string(userdata))))
}

// Deterministic is always true: the IV is fixed.
func (c *CookieOracle) Deterministic() bool { return true }

// DecryptCookies decrypts a cookie ciphertext, drops bytes that cannot
// appear in a cookie string and decodes the pairs in order.
func (c *CookieOracle) DecryptCookies(ciphertext []byte) ([]Cookie, error) {
	plaintext, err := c.ctx.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}
	filtered := make([]byte, 0, len(plaintext))
	for _, b := range plaintext {
		if isCookieChar(b) {
			filtered = append(filtered, b)
		}
	}
	return ParseCookies(string(filtered)), nil
}

// ParseCookies splits s on ';' and each pair on its first '='. Empty
// segments are skipped and undecodable escapes are kept verbatim.
func ParseCookies(s string) []Cookie {
	var cookies []Cookie
	for _, segment := range strings.Split(s, ";") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		cookies = append(cookies, Cookie{Key: unescapeLenient(key), Value: unescapeLenient(value)})
	}
	return cookies
}

func unescapeLenient(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

func isCookieChar(b byte) bool {
	switch b {
	case '=', ';', '%', '!', '(', ')', '*', '+', '-', '.', '_', '~':
		return true
	}
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

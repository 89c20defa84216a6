// Package testdata provides fixtures shared across the test suites,
// including a local SNS-style message signer so signature verification tests
// can exercise the real algorithm end to end.
package testdata

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"time"
)

// Signer holds a generated RSA key pair and a matching self signed
// certificate in the PEM format SNS publishes at its SigningCertURL.
type Signer struct {
	Key     *rsa.PrivateKey
	CertPem []byte
}

// NewSigner generates a fresh key and certificate, panicking on failure since
// it only runs inside tests.
func NewSigner() *Signer {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("failed to generate test RSA key: " + err.Error())
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "sns.amazonaws.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(
		rand.Reader, template, template, &key.PublicKey, key,
	)
	if err != nil {
		panic("failed to create test certificate: " + err.Error())
	}

	certPem := pem.EncodeToMemory(
		&pem.Block{Type: "CERTIFICATE", Bytes: der},
	)
	return &Signer{Key: key, CertPem: certPem}
}

// Sign returns the base64 SignatureVersion 1 (RSA-SHA1) signature over a
// canonical signing string.
func (s *Signer) Sign(signString string) string {
	digest := sha1.Sum([]byte(signString))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.Key, crypto.SHA1, digest[:])

	if err != nil {
		panic("failed to sign test message: " + err.Error())
	}
	return base64.StdEncoding.EncodeToString(sig)
}

// SignV2 returns the base64 SignatureVersion 2 (RSA-SHA256) signature.
func (s *Signer) SignV2(signString string) string {
	digest := sha256.Sum256([]byte(signString))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.Key, crypto.SHA256, digest[:])

	if err != nil {
		panic("failed to sign test message: " + err.Error())
	}
	return base64.StdEncoding.EncodeToString(sig)
}

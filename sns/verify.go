package sns

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/civimail/sesbounce/ops"
)

// CertFetcher retrieves the PEM encoded signing certificate published by SNS.
type CertFetcher interface {
	Fetch(ctx context.Context, certUrl string) ([]byte, error)
}

type HttpCertFetcher struct {
	Client *http.Client
}

func (f *HttpCertFetcher) Fetch(
	ctx context.Context, certUrl string,
) (pemBytes []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certUrl, nil)
	if err != nil {
		return
	}
	res, err := f.Client.Do(req)
	if err != nil {
		return
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("fetching %s returned %s", certUrl, res.Status)
	} else {
		pemBytes, err = io.ReadAll(res.Body)
	}
	return
}

// Verifier authenticates SNS envelopes against the signature embedded in each
// one. Public keys are cached per certificate URL for the process lifetime,
// since SNS signing certs are long lived and the URL is fixed per topic
// region.
type Verifier struct {
	Fetcher CertFetcher
	Log     *log.Logger

	mu   sync.Mutex
	keys map[string]*rsa.PublicKey
}

func NewVerifier(fetcher CertFetcher, logger *log.Logger) *Verifier {
	return &Verifier{
		Fetcher: fetcher,
		Log:     logger,
		keys:    make(map[string]*rsa.PublicKey),
	}
}

// Verify checks the envelope's signature over its canonical signing string.
// Any failure, including cert fetch or parse errors, wraps
// ops.ErrSignatureInvalid so callers short-circuit without side effects.
func (v *Verifier) Verify(ctx context.Context, env *Envelope) error {
	if err := checkCertUrl(env.SigningCertURL); err != nil {
		return fmt.Errorf("%w: %s", ops.ErrSignatureInvalid, err)
	}

	signature, err := base64.StdEncoding.DecodeString(env.Signature)
	if err != nil {
		return fmt.Errorf("%w: decoding signature: %s",
			ops.ErrSignatureInvalid, err)
	}

	key, err := v.publicKey(ctx, env.SigningCertURL)
	if err != nil {
		return fmt.Errorf("%w: %s", ops.ErrSignatureInvalid, err)
	}

	signString := []byte(env.SignString())

	// SignatureVersion 1 signs a SHA1 digest, version 2 a SHA256 digest.
	// Everything else SNS has ever emitted is version 1.
	if env.SignatureVersion == "2" {
		digest := sha256.Sum256(signString)
		err = rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], signature)
	} else {
		digest := sha1.Sum(signString)
		err = rsa.VerifyPKCS1v15(key, crypto.SHA1, digest[:], signature)
	}

	if err != nil {
		return fmt.Errorf("%w: %s", ops.ErrSignatureInvalid, err)
	}
	return nil
}

// checkCertUrl rejects certificate URLs that don't point at an AWS controlled
// HTTPS endpoint. Without this check an attacker could sign a forged
// notification with their own key and host the matching cert anywhere.
func checkCertUrl(certUrl string) error {
	u, err := url.Parse(certUrl)

	if err != nil {
		return fmt.Errorf("bad cert URL %q: %s", certUrl, err)
	} else if u.Scheme != "https" {
		return fmt.Errorf("cert URL %q is not https", certUrl)
	} else if !strings.HasSuffix(u.Hostname(), ".amazonaws.com") {
		return fmt.Errorf("cert URL host %q is not an AWS domain", u.Hostname())
	}
	return nil
}

func (v *Verifier) publicKey(
	ctx context.Context, certUrl string,
) (key *rsa.PublicKey, err error) {
	v.mu.Lock()
	key, ok := v.keys[certUrl]
	v.mu.Unlock()

	if ok {
		return
	}
	pemBytes, err := v.Fetcher.Fetch(ctx, certUrl)
	if err != nil {
		err = fmt.Errorf("fetching signing cert: %s", err)
		return
	}
	if key, err = parsePublicKey(pemBytes); err != nil {
		return
	}

	v.mu.Lock()
	v.keys[certUrl] = key
	v.mu.Unlock()
	return
}

func parsePublicKey(pemBytes []byte) (key *rsa.PublicKey, err error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		err = fmt.Errorf("signing cert is not PEM encoded")
		return
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		err = fmt.Errorf("parsing signing cert: %s", err)
		return
	}

	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		err = fmt.Errorf("signing cert key is %T, not RSA", cert.PublicKey)
	}
	return
}

package engine

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/embtls/embtls/internal/testcert"
)

func TestParseCertificateChain(t *testing.T) {
	certPEM, _, err := testcert.Generate()
	if err != nil {
		t.Fatal(err)
	}
	otherPEM, _, err := testcert.Generate()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		input   []byte
		wantLen int
		wantErr bool
	}{
		{
			name:    "single certificate",
			input:   certPEM,
			wantLen: 1,
		},
		{
			name:    "concatenated chain",
			input:   bytes.Join([][]byte{certPEM, otherPEM}, nil),
			wantLen: 2,
		},
		{
			name:    "no PEM blocks",
			input:   []byte("plain text"),
			wantErr: true,
		},
		{
			name:    "corrupt DER payload",
			input:   pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{0xde, 0xad}}),
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chain, err := ParseCertificateChain(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCertificateChain() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && len(chain) != tc.wantLen {
				t.Fatalf("ParseCertificateChain() len = %d, want %d", len(chain), tc.wantLen)
			}
		})
	}
}

func TestParsePrivateKey(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	sec1, err := x509.MarshalECPrivateKey(ecKey)
	if err != nil {
		t.Fatal(err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(ecKey)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		input   []byte
		wantErr bool
	}{
		{
			name:  "SEC 1",
			input: pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1}),
		},
		{
			name:  "PKCS#8",
			input: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}),
		},
		{
			name:    "no key block",
			input:   []byte("nothing here"),
			wantErr: true,
		},
		{
			name:    "corrupt payload",
			input:   pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1, 2, 3}}),
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePrivateKey(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParsePrivateKey() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewIdentity(t *testing.T) {
	certPEM, keyPEM, err := testcert.Generate()
	if err != nil {
		t.Fatal(err)
	}
	chain, err := ParseCertificateChain(certPEM)
	if err != nil {
		t.Fatal(err)
	}
	key, err := ParsePrivateKey(keyPEM)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewIdentity(chain, key); err != nil {
		t.Fatalf("NewIdentity() with matching key error = %v", err)
	}
	if _, err := NewIdentity(chain, nil); err != nil {
		t.Fatalf("NewIdentity() without key error = %v", err)
	}
	if _, err := NewIdentity(nil, key); err == nil {
		t.Fatal("NewIdentity() with empty chain expected error")
	}

	wrongKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewIdentity(chain, wrongKey); err == nil {
		t.Fatal("NewIdentity() with mismatched key expected error")
	}
}

func TestIdentityPeerCAChain(t *testing.T) {
	leafPEM, keyPEM, err := testcert.Generate()
	if err != nil {
		t.Fatal(err)
	}
	caPEM, _, err := testcert.Generate()
	if err != nil {
		t.Fatal(err)
	}
	key, err := ParsePrivateKey(keyPEM)
	if err != nil {
		t.Fatal(err)
	}

	// The head of the chain is the local identity; everything after it
	// becomes the CA chain used for peer verification.
	chain, err := ParseCertificateChain(bytes.Join([][]byte{leafPEM, caPEM}, nil))
	if err != nil {
		t.Fatal(err)
	}
	id, err := NewIdentity(chain, key)
	if err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Identity: id}
	if tc := cfg.tlsConfig(false); tc.ClientCAs == nil {
		t.Error("server config missing peer CA pool from chain remainder")
	}
	if tc := cfg.tlsConfig(true); tc.RootCAs == nil {
		t.Error("client config missing root CA pool from chain remainder")
	}

	single, err := NewIdentity(chain[:1], key)
	if err != nil {
		t.Fatal(err)
	}
	cfg = &Config{Identity: single}
	if tc := cfg.tlsConfig(false); tc.ClientCAs != nil {
		t.Error("single-certificate chain must not produce a peer CA pool")
	}
}

package tlsrecord

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"testing"
	"time"
)

func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "mock-venue"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"mock-venue"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

// pumpedPair shuttles ciphertext between a client and a server Pump
// entirely in memory until both report handshake completion, modeling
// how the gateway drives a Pump against bytes read off a real socket.
func pumpedPair(t *testing.T, client, server *Pump) {
	t.Helper()
	for round := 0; round < 50; round++ {
		cDone, cErr := client.Handshake()
		if cErr != nil {
			t.Fatalf("client handshake: %v", cErr)
		}
		sDone, sErr := server.Handshake()
		if sErr != nil {
			t.Fatalf("server handshake: %v", sErr)
		}
		out := client.TakeOutbound()
		if len(out) > 0 {
			server.Feed(out)
		}
		out = server.TakeOutbound()
		if len(out) > 0 {
			client.Feed(out)
		}
		if cDone && sDone {
			return
		}
	}
	t.Fatalf("handshake did not complete within round budget")
}

func TestHandshakeAndDrain(t *testing.T) {
	cert := selfSignedCert(t)
	serverCfg := &tls.Config{Certificates: []tls.Certificate{cert}}
	clientCfg := &tls.Config{InsecureSkipVerify: true}

	client := New("mock-venue", clientCfg, 0)
	server := newServerPump(serverCfg)

	pumpedPair(t, client, server)

	msg := []byte("subscribe-ack")
	n, err := server.tls.Write(msg)
	if err != nil || n != len(msg) {
		t.Fatalf("server write: n=%d err=%v", n, err)
	}
	client.Feed(server.TakeOutbound())

	buf := make([]byte, 64)
	n, err = client.Drain(buf)
	if err != nil {
		t.Fatalf("client drain: %v", err)
	}
	if !bytes.Equal(buf[:n], msg) {
		t.Fatalf("expected %q, got %q", msg, buf[:n])
	}
}

func TestDrainWithNoCiphertextIsNotAnError(t *testing.T) {
	cert := selfSignedCert(t)
	client := New("mock-venue", &tls.Config{InsecureSkipVerify: true}, 0)
	server := newServerPump(&tls.Config{Certificates: []tls.Certificate{cert}})
	pumpedPair(t, client, server)

	buf := make([]byte, 32)
	n, err := client.Drain(buf)
	if err != nil {
		t.Fatalf("expected nil error when no ciphertext is buffered, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 bytes drained, got %d", n)
	}
}

func TestWritePlaintext(t *testing.T) {
	cert := selfSignedCert(t)
	client := New("mock-venue", &tls.Config{InsecureSkipVerify: true}, 0)
	server := newServerPump(&tls.Config{Certificates: []tls.Certificate{cert}})
	pumpedPair(t, client, server)

	req := []byte("GET /v2 HTTP/1.1\r\nHost: mock-venue\r\n\r\n")
	if err := client.WritePlaintext(req); err != nil {
		t.Fatalf("WritePlaintext: %v", err)
	}
	server.Feed(client.TakeOutbound())

	buf := make([]byte, 256)
	n, err := server.Drain(buf)
	if err != nil {
		t.Fatalf("server drain: %v", err)
	}
	if !bytes.Equal(buf[:n], req) {
		t.Fatalf("expected %q, got %q", req, buf[:n])
	}
}

func TestFeedRejectsOversizedChunk(t *testing.T) {
	client := New("mock-venue", &tls.Config{InsecureSkipVerify: true}, 8)
	err := client.Feed(make([]byte, 9))
	if err == nil {
		t.Fatalf("expected oversized chunk to be rejected")
	}
	var tre *TransientReadError
	if !errors.As(err, &tre) {
		t.Fatalf("expected *TransientReadError, got %T: %v", err, err)
	}
}

func TestTransientReadErrorUnwraps(t *testing.T) {
	underlying := errors.New("boom")
	wrapped := &TransientReadError{Err: underlying}
	if !errors.Is(wrapped, underlying) {
		t.Fatalf("expected errors.Is to see through TransientReadError")
	}
}

func newServerPump(cfg *tls.Config) *Pump {
	mc := newMemConn()
	return &Pump{conn: mc, tls: tls.Server(mc, cfg)}
}

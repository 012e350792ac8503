package gateway

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"math/big"
	"net"
	"runtime"
	"strings"
	"testing"
	"time"

	"mdgw/config"
	"mdgw/queue"
	"mdgw/tlsrecord"
	"mdgw/tstamp"
	"mdgw/venue"

	"golang.org/x/crypto/sha3"
)

// seededPayload returns a deterministic pseudo-random market-update
// body derived from seed, so fixtures are reproducible without needing
// a real exchange's wire format.
func seededPayload(seed byte) []byte {
	h := sha3.Sum256([]byte{seed})
	return h[:]
}

func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

// buildServerFrame constructs an unmasked server-to-client frame, the
// shape wsproto.Decoder expects, for a mock server to emit.
func buildServerFrame(opcode byte, payload []byte) []byte {
	n := len(payload)
	var header []byte
	switch {
	case n <= 125:
		header = []byte{0x80 | opcode, byte(n)}
	case n <= 0xFFFF:
		header = make([]byte, 4)
		header[0] = 0x80 | opcode
		header[1] = 126
		binary.BigEndian.PutUint16(header[2:], uint16(n))
	default:
		panic("payload too large for test helper")
	}
	out := make([]byte, len(header)+n)
	copy(out, header)
	copy(out[len(header):], payload)
	return out
}

// startMockServer listens on 127.0.0.1:0, accepts one TLS connection,
// performs a minimal WebSocket upgrade handshake, writes frame (if
// non-nil) once the upgrade completes, and keeps the connection open
// until the test closes the listener.
func startMockServer(t *testing.T, frame []byte) string {
	t.Helper()
	cert := selfSignedCert(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		raw, err := ln.Accept()
		if err != nil {
			return
		}
		srv := tls.Server(raw, &tls.Config{Certificates: []tls.Certificate{cert}})
		if err := srv.Handshake(); err != nil {
			return
		}
		buf := make([]byte, 4096)
		var req bytes.Buffer
		for !strings.Contains(req.String(), "\r\n\r\n") {
			n, err := srv.Read(buf)
			if n > 0 {
				req.Write(buf[:n])
			}
			if err != nil {
				return
			}
		}
		srv.Write([]byte("HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n\r\n"))
		if frame != nil {
			srv.Write(frame)
		}
	}()

	return ln.Addr().String()
}

func TestResolveVenue(t *testing.T) {
	cases := []struct {
		venue   string
		wantErr bool
	}{
		{config.VenueBitMEX, false},
		{config.VenueBitMEXTestnet, false},
		{config.VenueKraken, false},
		{config.VenueMockBitMEX, false},
		{config.VenueMockKraken, false},
		{"nonsense", true},
	}
	for _, tc := range cases {
		cfg := config.Default()
		cfg.Venue = tc.venue
		cfg.MockAddr = "127.0.0.1:1"
		_, err := resolveVenue(cfg)
		if (err != nil) != tc.wantErr {
			t.Errorf("resolveVenue(%q): err=%v, wantErr=%v", tc.venue, err, tc.wantErr)
		}
	}
}

func TestNew_RejectsEmptySymbolList(t *testing.T) {
	cfg := config.Default()
	q := queue.New[queue.Entry](4)
	if _, err := New(cfg, nil, q); err == nil {
		t.Fatalf("expected error for empty symbol list")
	}
}

func TestBootstrap_RejectsExcessiveGatewayCPU(t *testing.T) {
	cfg := config.Default()
	cfg.GatewayCPU = runtime.NumCPU() + 10
	q := queue.New[queue.Entry](4)
	gw, err := New(cfg, []string{"XBT/USD"}, q)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = gw.Bootstrap()
	if err == nil {
		t.Fatalf("expected bootstrap to fail for an out-of-range gateway-cpu")
	}
	if _, ok := err.(*ErrBootstrapFailed); !ok {
		t.Fatalf("expected *ErrBootstrapFailed, got %T: %v", err, err)
	}
}

func TestConnect_ReachesReadyAgainstMockServer(t *testing.T) {
	addr := startMockServer(t, nil)
	v := venue.MockKraken(addr)
	c := newConnection(0, "XBT/USD", v, 4096)

	if err := c.connect(true); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.raw.Close()

	if c.state != connReady {
		t.Fatalf("expected state connReady, got %s", c.state)
	}
	if c.raw == nil || c.pump == nil {
		t.Fatalf("expected raw conn and pump to be populated")
	}
}

func TestValidateUpgradeResponse(t *testing.T) {
	if err := validateUpgradeResponse([]byte("HTTP/1.1 101 Switching Protocols")); err != nil {
		t.Fatalf("expected 101 response to validate, got %v", err)
	}
	if err := validateUpgradeResponse([]byte("HTTP/1.1 404 Not Found")); err == nil {
		t.Fatalf("expected 404 response to be rejected")
	}
}

// pumpHandshakePair drives the gateway's own pumpHandshake against a
// real tls.Server on the other end of a net.Pipe, so publish() can be
// exercised against genuine TLS ciphertext without a real socket.
func pumpHandshakePair(t *testing.T) (clientRaw net.Conn, client *tlsrecord.Pump, srv *tls.Conn) {
	t.Helper()
	cert := selfSignedCert(t)
	serverRaw, clientRaw := net.Pipe()

	srv = tls.Server(serverRaw, &tls.Config{Certificates: []tls.Certificate{cert}})
	client = tlsrecord.New("localhost", &tls.Config{InsecureSkipVerify: true}, 4096)

	done := make(chan error, 1)
	go func() { done <- srv.Handshake() }()

	if err := pumpHandshake(clientRaw, client); err != nil {
		t.Fatalf("client handshake: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("server handshake: %v", err)
	}
	return clientRaw, client, srv
}

func TestPublish_DecodesFrameIntoQueue(t *testing.T) {
	clientRaw, client, srv := pumpHandshakePair(t)
	defer clientRaw.Close()
	defer srv.Close()

	payload := seededPayload(0x07)
	frame := buildServerFrame(0x2, payload)

	writeDone := make(chan error, 1)
	go func() { _, err := srv.Write(frame); writeDone <- err }()

	buf := make([]byte, 4096)
	n, err := clientRaw.Read(buf)
	if err != nil {
		t.Fatalf("read ciphertext: %v", err)
	}
	if err := <-writeDone; err != nil {
		t.Fatalf("server write: %v", err)
	}

	v := venue.MockKraken("127.0.0.1:1")
	c := newConnection(3, "XBT/USD", v, 4096)
	c.pump = client
	copy(c.ciphertextBuf, buf[:n])

	cfg := config.Default()
	q := queue.New[queue.Entry](4)
	g := &Gateway{cfg: cfg, q: q, connections: []*connection{c}}

	g.publish(c, n, tstamp.Quad{PollWake: tstamp.Now()})

	e, ok := q.Pop()
	if !ok {
		t.Fatalf("expected an entry to be enqueued")
	}
	if e.ConnIdx != 3 {
		t.Fatalf("expected ConnIdx 3, got %d", e.ConnIdx)
	}
	if !bytes.Equal(e.Payload[:e.Len], payload) {
		t.Fatalf("expected payload %q, got %q", payload, e.Payload[:e.Len])
	}
	if c.packets.Load() != 1 || c.bytes.Load() != uint64(len(payload)) {
		t.Fatalf("expected counters packets=1 bytes=%d, got packets=%d bytes=%d",
			len(payload), c.packets.Load(), c.bytes.Load())
	}
}

func TestPublish_ZeroLengthReadClosesConnection(t *testing.T) {
	v := venue.MockKraken("127.0.0.1:1")
	c := newConnection(0, "XBT/USD", v, 4096)
	g := &Gateway{cfg: config.Default(), q: queue.New[queue.Entry](4), connections: []*connection{c}}

	g.publish(c, 0, tstamp.Quad{})

	if c.state != connClosed {
		t.Fatalf("expected connClosed after a zero-length read, got %s", c.state)
	}
}

func TestEnqueue_DropsOnQueueFullAndCountsDrop(t *testing.T) {
	v := venue.MockKraken("127.0.0.1:1")
	c := newConnection(0, "XBT/USD", v, 4096)

	cfg := config.Default()
	cfg.PushRetries = 3
	q := queue.New[queue.Entry](2)
	q.Push(queue.Entry{})

	g := &Gateway{cfg: cfg, q: q, connections: []*connection{c}}
	g.enqueue(c, []byte("payload"), tstamp.Quad{})

	if g.Dropped() != 1 {
		t.Fatalf("expected 1 dropped entry, got %d", g.Dropped())
	}
	if c.packets.Load() != 0 {
		t.Fatalf("expected no packets counted for a dropped entry, got %d", c.packets.Load())
	}
}

func TestEnqueue_RejectsOversizedPayload(t *testing.T) {
	v := venue.MockKraken("127.0.0.1:1")
	c := newConnection(0, "XBT/USD", v, 4096)
	cfg := config.Default()
	q := queue.New[queue.Entry](4)
	g := &Gateway{cfg: cfg, q: q, connections: []*connection{c}}

	oversized := make([]byte, queue.MaxPayload+1)
	g.enqueue(c, oversized, tstamp.Quad{})

	if _, ok := q.Pop(); ok {
		t.Fatalf("expected oversized payload to be silently dropped, not enqueued")
	}
	if g.Dropped() != 0 {
		t.Fatalf("expected oversized payload to not count as a queue-full drop")
	}
}

func TestReport_AggregatesPerConnectionCounters(t *testing.T) {
	v := venue.MockKraken("127.0.0.1:1")
	c0 := newConnection(0, "XBT/USD", v, 4096)
	c1 := newConnection(1, "ETH/USD", v, 4096)
	c0.packets.Store(10)
	c0.bytes.Store(1000)
	c1.packets.Store(5)
	c1.bytes.Store(500)

	g := &Gateway{cfg: config.Default(), connections: []*connection{c0, c1}}
	g.dropped.Store(2)

	var buf bytes.Buffer
	g.Report(&buf, 100*time.Millisecond)

	out := buf.String()
	for _, want := range []string{"XBT/USD", "ETH/USD", "FINAL REPORT"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected report to contain %q, got:\n%s", want, out)
		}
	}
}

// Package config parses the gateway's runtime configuration surface:
// venue selection, portfolio, CPU pinning, and buffer sizing, per the
// flag set spec.md §6 calls for turning the original's compile-time
// selection into. A YAML file supplies defaults; command-line flags
// override it, the same layering the rest of the pack's CLI tools use.
package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Venue names accepted by --venue.
const (
	VenueBitMEX        = "bitmex"
	VenueBitMEXTestnet = "bitmex-testnet"
	VenueKraken        = "kraken"
	VenueMockBitMEX    = "mock-bitmex"
	VenueMockKraken    = "mock-kraken"
)

// Config is the gateway's full runtime configuration surface.
type Config struct {
	Venue     string `yaml:"venue"`
	Portfolio string `yaml:"portfolio"`

	GatewayCPU int `yaml:"gateway-cpu"`
	SQPollCPU  int `yaml:"sqpoll-cpu"`

	RingEntries int `yaml:"ring-entries"`
	RxBufSize   int `yaml:"rx-buf"`

	QueueCapacity int `yaml:"queue-capacity"`
	PushRetries   int `yaml:"push-retries"`

	MockAddr string `yaml:"mock-addr"`

	PortfolioDB string `yaml:"portfolio-db"`

	PipeOutFD int `yaml:"-"`

	RunTimeout int `yaml:"run-timeout-seconds"`
}

// Default returns the configuration the original system's constants.go
// baked in at compile time.
func Default() Config {
	return Config{
		Venue:         VenueMockKraken,
		Portfolio:     "kraken-3",
		GatewayCPU:    1,
		SQPollCPU:     0,
		RingEntries:   256,
		RxBufSize:     16378,
		QueueCapacity: 4096,
		PushRetries:   1 << 20,
		MockAddr:      "127.0.0.1:17171",
		PortfolioDB:   "portfolio.db",
		PipeOutFD:     -1,
		RunTimeout:    0,
	}
}

// Parse loads defaults, merges an optional YAML file, then applies
// flag overrides from args (typically os.Args[1:]). Flags always win
// over the YAML file, which always wins over Default.
func Parse(args []string) (*Config, error) {
	conf := Default()

	fs := flag.NewFlagSet("mdgw", flag.ContinueOnError)
	fConfigPath := fs.String("config", "", "path to config YAML file (optional)")
	fVenue := fs.String("venue", "", "bitmex|bitmex-testnet|kraken|mock-bitmex|mock-kraken")
	fPortfolio := fs.String("portfolio", "", "named symbol portfolio, e.g. kraken-50")
	fGatewayCPU := fs.Int("gateway-cpu", -1, "CPU to pin the gateway thread to")
	fSQPollCPU := fs.Int("sqpoll-cpu", -1, "CPU to pin the io_uring SQ-poll thread to")
	fRingEntries := fs.Int("ring-entries", 0, "io_uring submission queue depth")
	fRxBuf := fs.Int("rx-buf", 0, "per-connection ciphertext/plaintext buffer size in bytes")
	fQueueCap := fs.Int("queue-capacity", 0, "SPSC queue capacity")
	fMockAddr := fs.String("mock-addr", "", "host:port for mock-bitmex/mock-kraken to dial")
	fPortfolioDB := fs.String("portfolio-db", "", "path to the SQLite portfolio catalog")
	fRunTimeout := fs.Int("run-timeout-seconds", -1, "safety timer for test builds; 0 disables it")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *fConfigPath != "" {
		b, err := os.ReadFile(*fConfigPath)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", *fConfigPath, err)
		}
		if err := yaml.Unmarshal(b, &conf); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", *fConfigPath, err)
		}
	}

	if *fVenue != "" {
		conf.Venue = *fVenue
	}
	if *fPortfolio != "" {
		conf.Portfolio = *fPortfolio
	}
	if *fGatewayCPU >= 0 {
		conf.GatewayCPU = *fGatewayCPU
	}
	if *fSQPollCPU >= 0 {
		conf.SQPollCPU = *fSQPollCPU
	}
	if *fRingEntries > 0 {
		conf.RingEntries = *fRingEntries
	}
	if *fRxBuf > 0 {
		conf.RxBufSize = *fRxBuf
	}
	if *fQueueCap > 0 {
		conf.QueueCapacity = *fQueueCap
	}
	if *fMockAddr != "" {
		conf.MockAddr = *fMockAddr
	}
	if *fPortfolioDB != "" {
		conf.PortfolioDB = *fPortfolioDB
	}
	if *fRunTimeout >= 0 {
		conf.RunTimeout = *fRunTimeout
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate rejects a configuration that would fail bootstrap deep
// inside the gateway instead of at the CLI boundary.
func (c *Config) Validate() error {
	switch c.Venue {
	case VenueBitMEX, VenueBitMEXTestnet, VenueKraken, VenueMockBitMEX, VenueMockKraken:
	default:
		return fmt.Errorf("config: unknown venue %q", c.Venue)
	}
	if c.Portfolio == "" {
		return fmt.Errorf("config: portfolio must be set")
	}
	if c.GatewayCPU < 0 {
		return fmt.Errorf("config: gateway-cpu must be >= 0")
	}
	if c.RingEntries <= 0 {
		return fmt.Errorf("config: ring-entries must be > 0")
	}
	if c.RxBufSize <= 0 || c.RxBufSize > 1<<16 {
		return fmt.Errorf("config: rx-buf must be in (0, 65536]")
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("config: queue-capacity must be > 0")
	}
	if (c.Venue == VenueMockBitMEX || c.Venue == VenueMockKraken) && c.MockAddr == "" {
		return fmt.Errorf("config: mock-addr must be set for venue %q", c.Venue)
	}
	return nil
}

// IsMock reports whether the configured venue is a local test double.
func (c *Config) IsMock() bool {
	return c.Venue == VenueMockBitMEX || c.Venue == VenueMockKraken
}

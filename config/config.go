package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"xdao.co/carstream/car"
	"xdao.co/carstream/source"
	"xdao.co/carstream/transport/grpcsource"
	"xdao.co/carstream/transport/httpsource"
)

// Config describes where an archive comes from and how it is decoded.
//
// Example:
//
//	{
//	  "source": {"kind": "http", "host": "https://bsky.social", "did": "did:plc:abc"},
//	  "timeout": "30s",
//	  "max_frame_size": 2097152,
//	  "store": "/tmp/blocks"
//	}
//
// Source kinds:
// - "file": Path (or "-" for stdin), optional Compression (auto|none|gzip|zstd)
// - "http": Host and DID for com.atproto.sync.getRepo, optional Since and Token
// - "grpc": Target and Name for the Archive gRPC service
type Config struct {
	Source       Source `json:"source"`
	Timeout      string `json:"timeout,omitempty"`
	MaxFrameSize int    `json:"max_frame_size,omitempty"`
	Store        string `json:"store,omitempty"`
	LogLevel     string `json:"log_level,omitempty"`
}

type Source struct {
	Kind        string `json:"kind"`
	Path        string `json:"path,omitempty"`
	Compression string `json:"compression,omitempty"`
	Host        string `json:"host,omitempty"`
	DID         string `json:"did,omitempty"`
	Since       string `json:"since,omitempty"`
	Token       string `json:"token,omitempty"`
	Target      string `json:"target,omitempty"`
	Name        string `json:"name,omitempty"`
}

func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("config: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Source.Kind {
	case "file":
		if c.Source.Path == "" {
			return errors.New("config: file source requires path")
		}
		if _, err := source.ParseCompression(c.Source.Compression); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	case "http":
		if c.Source.Host == "" || c.Source.DID == "" {
			return errors.New("config: http source requires host and did")
		}
	case "grpc":
		if c.Source.Target == "" || c.Source.Name == "" {
			return errors.New("config: grpc source requires target and name")
		}
	case "":
		return errors.New("config: source kind is required")
	default:
		return fmt.Errorf("config: invalid source kind %q", c.Source.Kind)
	}
	if _, err := c.timeout(); err != nil {
		return err
	}
	if c.MaxFrameSize < 0 {
		return fmt.Errorf("config: invalid max_frame_size %d", c.MaxFrameSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("config: invalid timeout %q", c.Timeout)
	}
	return d, nil
}

// Level returns the configured log level; info when unset.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return l, nil
}

// DecodeOptions returns the car options implied by the config.
func (c Config) DecodeOptions(logger *slog.Logger) []car.Option {
	opts := []car.Option{car.WithLogger(logger)}
	if c.MaxFrameSize > 0 {
		opts = append(opts, car.WithMaxFrameSize(c.MaxFrameSize))
	}
	return opts
}

// Opener builds the archive opener for the configured source. The returned
// close function releases transport resources shared across passes.
func (c Config) Opener() (car.Opener, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	timeout, _ := c.timeout()
	noop := func() error { return nil }

	switch c.Source.Kind {
	case "file":
		comp, _ := source.ParseCompression(c.Source.Compression)
		return source.File(c.Source.Path, comp), noop, nil
	case "http":
		hc := &http.Client{Timeout: timeout}
		client := &httpsource.Client{Host: c.Source.Host, HTTPClient: hc}
		if c.Source.Token != "" {
			client.Header = http.Header{"Authorization": {"Bearer " + c.Source.Token}}
		}
		return client.GetRepo(c.Source.DID, c.Source.Since), noop, nil
	case "grpc":
		client, err := grpcsource.Dial(c.Source.Target, grpcsource.DialOptions{Timeout: timeout})
		if err != nil {
			return nil, nil, err
		}
		client.Timeout = timeout
		return client.Opener(c.Source.Name), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("config: invalid source kind %q", c.Source.Kind)
	}
}

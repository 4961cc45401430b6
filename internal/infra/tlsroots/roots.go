package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

	// ErrKeyWithoutCert is returned when only one half of a client key pair is configured.
	ErrKeyWithoutCert = errors.New("tlsroots: client cert and key must be set together")
)

// ClientOptions describes the broker-side TLS material.
type ClientOptions struct {
	// CAFile pins the broker CA. Empty means the system roots.
	CAFile string `koanf:"ca_file"`
	// CertFile and KeyFile enable mutual TLS.
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	// ServerName overrides the name verified against the broker certificate.
	ServerName string `koanf:"server_name"`
}

// Enabled reports whether any TLS material is configured.
func (o ClientOptions) Enabled() bool {
	return o.CAFile != "" || o.CertFile != "" || o.KeyFile != ""
}

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
}

// NewPool creates a new certificate pool with system roots.
// If system roots cannot be loaded, it creates an empty pool.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a new empty certificate pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds certificates from a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}

	return p.AddCertPEM(data)
}

// AddCertPEM adds every CERTIFICATE block of pemData. Other block types
// are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var certsAdded int

	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}

		p.certPool.AddCert(cert)
		certsAdded++
	}

	if certsAdded == 0 {
		return ErrNoCertsFound
	}

	return nil
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// ClientConfig builds the broker client tls.Config for opts.
//
// The returned Watcher is nil unless a client certificate is configured;
// callers that get one should StartAsync it and Stop it on shutdown.
func ClientConfig(opts ClientOptions, logger *slog.Logger) (*tls.Config, *Watcher, error) {
	if (opts.CertFile == "") != (opts.KeyFile == "") {
		return nil, nil, ErrKeyWithoutCert
	}

	pool := NewPool()
	if opts.CAFile != "" {
		pool = NewEmptyPool()
		if err := pool.AddCertFile(opts.CAFile); err != nil {
			return nil, nil, err
		}
	}

	cfg := &tls.Config{
		RootCAs:    pool.Pool(),
		ServerName: opts.ServerName,
		MinVersion: tls.VersionTLS12,
	}

	if opts.CertFile == "" {
		return cfg, nil, nil
	}

	if logger == nil {
		logger = slog.Default()
	}
	w, err := NewWatcher(opts.CertFile, opts.KeyFile, WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	cfg.GetClientCertificate = w.GetClientCertificate

	return cfg, w, nil
}

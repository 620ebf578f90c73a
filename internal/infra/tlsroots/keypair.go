package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/johnmalek312/android-ui-collector/internal/infra/confloader"
)

// DefaultReloadDebounce waits for both files of a rotation to land.
const DefaultReloadDebounce = 500 * time.Millisecond

// KeyPair serves the current certificate of a cert/key file pair.
type KeyPair struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	watcher *confloader.Watcher
}

// LoadKeyPair reads the certificate and key. The pair is only reloaded
// after Watch.
func LoadKeyPair(certFile, keyFile string, logger *slog.Logger) (*KeyPair, error) {
	if logger == nil {
		logger = slog.Default()
	}
	kp := &KeyPair{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := kp.Reload(); err != nil {
		return nil, err
	}
	return kp, nil
}

// Reload reads the files again. The previous certificate stays in use
// when they do not form a valid pair.
func (kp *KeyPair) Reload() error {
	cert, err := tls.LoadX509KeyPair(kp.certFile, kp.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	kp.mu.Lock()
	kp.cert = &cert
	kp.mu.Unlock()
	return nil
}

// Watch reloads the pair whenever either file changes.
func (kp *KeyPair) Watch(debounce time.Duration) error {
	w, err := confloader.NewWatcher(
		confloader.WithWatcherLogger(kp.logger),
		confloader.WithDebounce(debounce),
	)
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	for _, path := range []string{kp.certFile, kp.keyFile} {
		if err := w.Watch(path); err != nil {
			_ = w.Stop()
			return fmt.Errorf("tlsroots: watch %s: %w", path, err)
		}
	}
	w.OnChange(func(string) {
		if err := kp.Reload(); err != nil {
			kp.logger.Error("certificate reload failed", "cert_file", kp.certFile, "error", err)
			return
		}
		kp.logger.Info("certificate reloaded", "cert_file", kp.certFile)
	})
	w.StartAsync()

	kp.mu.Lock()
	kp.watcher = w
	kp.mu.Unlock()
	return nil
}

// Close stops watching.
func (kp *KeyPair) Close() error {
	kp.mu.Lock()
	w := kp.watcher
	kp.watcher = nil
	kp.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Stop()
}

// GetCertificate implements tls.Config.GetCertificate.
func (kp *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	kp.mu.RLock()
	defer kp.mu.RUnlock()
	return kp.cert, nil
}

// ServerConfig returns server TLS settings backed by the pair.
func (kp *KeyPair) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: kp.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

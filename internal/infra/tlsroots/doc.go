// Package tlsroots builds the TLS settings of both processes:
//
//   - roots.go: client trust, system roots plus an optional CA bundle
//     so uploads can reach a sink with a private certificate
//   - keypair.go: the sink's serving certificate, reloaded when the
//     certificate or key file changes on disk
package tlsroots

package fetcher

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"net"
	"time"
)

// Certificate describes the leaf certificate a host serves on port 443.
// A probe never fails hard: any problem lands in Error with Valid false.
type Certificate struct {
	SubjectCN    string
	IssuerCN     string
	SerialNumber string
	Fingerprint  string
	ValidTo      time.Time
	Valid        bool
	Error        string
}

// ProbeCertificate connects to host:443 and reads the presented leaf
// certificate. Verification is disabled on the handshake so expired or
// mismatched certificates can still be described; validity is judged from
// the certificate's own window afterwards.
func ProbeCertificate(host string, timeout time.Duration) *Certificate {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, "443"), &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: true,
	})
	if err != nil {
		return &Certificate{Error: err.Error()}
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return &Certificate{Error: "no certificate presented"}
	}

	leaf := certs[0]
	sum := sha256.Sum256(leaf.Raw)
	now := time.Now()

	return &Certificate{
		SubjectCN:    leaf.Subject.CommonName,
		IssuerCN:     leaf.Issuer.CommonName,
		SerialNumber: leaf.SerialNumber.String(),
		Fingerprint:  hex.EncodeToString(sum[:]),
		ValidTo:      leaf.NotAfter,
		Valid:        now.After(leaf.NotBefore) && now.Before(leaf.NotAfter),
	}
}

package certs

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(t *testing.T, cert tls.Certificate) *x509.Certificate {
	t.Helper()
	require.Len(t, cert.Certificate, 1)
	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return parsed
}

func TestFileManager_Certificate(t *testing.T) {
	tests := []struct {
		setup      func(t *testing.T, m *FileManager)
		name       string
		wantReused bool
	}{
		{
			name:  "generates when missing",
			setup: func(*testing.T, *FileManager) {},
		},
		{
			name: "reuses a valid certificate",
			setup: func(t *testing.T, m *FileManager) {
				_, err := m.Certificate()
				require.NoError(t, err)
			},
			wantReused: true,
		},
		{
			name: "replaces garbage files",
			setup: func(t *testing.T, m *FileManager) {
				require.NoError(t, os.MkdirAll(m.dir, 0700))
				require.NoError(t, os.WriteFile(m.certFile, []byte("not a cert"), 0600))
				require.NoError(t, os.WriteFile(m.keyFile, []byte("not a key"), 0600))
			},
		},
		{
			name: "renews a certificate close to expiry",
			setup: func(t *testing.T, m *FileManager) {
				clock := m.now
				m.now = func() time.Time { return clock().Add(-Validity + 24*time.Hour) }
				_, err := m.Certificate()
				require.NoError(t, err)
				m.now = clock
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFileManager(filepath.Join(t.TempDir(), "certs"), nil)
			tt.setup(t, m)

			var before []byte
			if data, err := os.ReadFile(m.CertFile()); err == nil {
				before = data
			}

			cert, err := m.Certificate()
			require.NoError(t, err)

			parsed := leaf(t, cert)
			assert.NoError(t, parsed.VerifyHostname("localhost"))
			assert.NoError(t, parsed.VerifyHostname("127.0.0.1"))
			assert.Equal(t, []string{"Noumi"}, parsed.Subject.Organization)
			assert.True(t, parsed.NotAfter.After(time.Now().Add(Validity-time.Hour)))

			after, err := os.ReadFile(m.CertFile())
			require.NoError(t, err)
			if tt.wantReused {
				assert.Equal(t, before, after)
			} else {
				assert.NotEqual(t, before, after)
			}
		})
	}
}

func TestFileManager_KeyPermissions(t *testing.T) {
	m := NewFileManager(t.TempDir(), nil)
	_, err := m.Certificate()
	require.NoError(t, err)

	info, err := os.Stat(m.keyFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileManager_TLSConfig(t *testing.T) {
	m := NewFileManager(t.TempDir(), nil)
	config, err := m.TLSConfig()
	require.NoError(t, err)

	assert.Len(t, config.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), config.MinVersion)
}

package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckURL_Allowed(t *testing.T) {
	p := DefaultPolicy(t.TempDir())

	allowed := []string{
		"https://example.com",
		"https://example.com/path?q=1",
		"http://example.com:8080/api",
		"https://api.github.com/repos",
	}

	for _, raw := range allowed {
		u, err := p.CheckURL(raw)
		require.NoError(t, err, "URL should be allowed: %s", raw)
		assert.NotNil(t, u)
	}
}

func TestCheckURL_BlockedHosts(t *testing.T) {
	p := DefaultPolicy(t.TempDir())

	blocked := []string{
		"http://localhost/admin",
		"http://localhost:8080",
		"http://127.0.0.1/",
		"http://127.1.2.3/",
		"http://0.0.0.0/",
		"http://10.0.0.5/internal",
		"http://192.168.1.1/router",
		"http://172.16.0.1/",
		"http://172.31.255.255/",
		"http://169.254.169.254/latest/meta-data/",
		"http://metadata.google.internal/computeMetadata/v1/",
		"http://metadata/",
		"http://[::1]/",
		"http://[fd12:3456:789a::1]/",
		"http://[fe80::1]/",
	}

	for _, raw := range blocked {
		_, err := p.CheckURL(raw)
		require.Error(t, err, "URL should be blocked: %s", raw)
		assert.True(t, IsBlocked(err), "expected BlockedError for %s", raw)
	}
}

func TestCheckURL_PublicRangesNotOverblocked(t *testing.T) {
	p := DefaultPolicy(t.TempDir())

	// 172.32.x is public; only 172.16-31 is RFC1918
	_, err := p.CheckURL("http://172.32.0.1/")
	assert.NoError(t, err)

	// 8.8.8.8 is public
	_, err = p.CheckURL("http://8.8.8.8/")
	assert.NoError(t, err)
}

func TestCheckURL_SchemeRestriction(t *testing.T) {
	p := DefaultPolicy(t.TempDir())

	for _, raw := range []string{"ftp://example.com/file", "file:///etc/passwd", "gopher://example.com"} {
		_, err := p.CheckURL(raw)
		require.Error(t, err, "scheme should be blocked: %s", raw)
		assert.True(t, IsBlocked(err))
	}
}

func TestCheckURL_SafeModePorts(t *testing.T) {
	p := DefaultPolicy(t.TempDir())
	p.SafeMode = true

	_, err := p.CheckURL("https://example.com")
	assert.NoError(t, err)

	_, err = p.CheckURL("https://example.com:443/path")
	assert.NoError(t, err)

	_, err = p.CheckURL("http://example.com:80/path")
	assert.NoError(t, err)

	_, err = p.CheckURL("http://example.com:8080/path")
	require.Error(t, err)
	assert.True(t, IsBlocked(err))
}

package scrape

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func respWith(status int, headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{StatusCode: status, Header: h}
}

func TestDetectBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    *http.Response
		body    string
		blocked bool
		bType   BlockType
	}{
		{
			"nil response",
			nil, "", false, BlockNone,
		},
		{
			"clean 200",
			respWith(200, nil),
			"<html><body>Welcome to our site with plenty of real content here.</body></html>",
			false, BlockNone,
		},
		{
			"cloudflare 403 by cf-ray header",
			respWith(403, map[string]string{"Cf-Ray": "8abc"}),
			"Access denied", true, BlockCloudflare,
		},
		{
			"cloudflare 503 by server header",
			respWith(503, map[string]string{"Server": "cloudflare"}),
			"", true, BlockCloudflare,
		},
		{
			"cloudflare challenge page on 200",
			respWith(200, nil),
			"<title>Just a moment...</title>", true, BlockCloudflare,
		},
		{
			"captcha marker",
			respWith(200, nil),
			"<div class=\"g-recaptcha\" data-sitekey=\"x\"></div>", true, BlockCaptcha,
		},
		{
			"js shell with noscript",
			respWith(200, nil),
			"<html><body><noscript>Please enable JavaScript</noscript></body></html>",
			true, BlockJSShell,
		},
		{
			"meta refresh shell",
			respWith(200, nil),
			"<meta http-equiv=\"refresh\" content=\"0;url=/app\">",
			true, BlockJSShell,
		},
		{
			"plain 403 without cf headers or markers",
			respWith(403, nil),
			"Forbidden by origin policy for this resource and client address.",
			false, BlockNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			blocked, bType := DetectBlock(tt.resp, []byte(tt.body))
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.bType, bType)
		})
	}
}

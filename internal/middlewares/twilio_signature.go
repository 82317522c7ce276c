package middlewares

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

const TwilioSignatureHeader = "X-Twilio-Signature"

// TwilioSignature rejects webhook calls whose X-Twilio-Signature does not match the
// request. publicBaseURL replaces scheme and host when the service sits behind a proxy.
func TwilioSignature(authToken, publicBaseURL string) echo.MiddlewareFunc {
	if authToken == "" {
		return misconfigured("Twilio auth token")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			signature := c.Request().Header.Get(TwilioSignatureHeader)
			if signature == "" {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Missing signature"})
			}

			form, err := c.FormParams()
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid form body"})
			}

			params := make(map[string]string, len(form))
			for k, v := range form {
				if len(v) > 0 {
					params[k] = v[0]
				}
			}

			expected := ComputeTwilioSignature(authToken, requestURL(c, publicBaseURL), params)
			if !hmac.Equal([]byte(signature), []byte(expected)) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Invalid signature"})
			}

			return next(c)
		}
	}
}

// ComputeTwilioSignature is base64(HMAC-SHA1(authToken, url + sorted key/value pairs)).
func ComputeTwilioSignature(authToken, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(url)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func requestURL(c echo.Context, publicBaseURL string) string {
	req := c.Request()
	if publicBaseURL != "" {
		return strings.TrimRight(publicBaseURL, "/") + req.URL.RequestURI()
	}
	return c.Scheme() + "://" + req.Host + req.URL.RequestURI()
}

package workflow

import (
	"fmt"
	"net/url"
	"strings"
)

// SendLink builds the shareable deep link for a money request. With an empty
// origin it returns the relative path, which is also the redirect target
// stashed for after login.
func SendLink(origin string, requestID string) string {
	return strings.TrimSuffix(origin, "/") + "/send?requestId=" + url.QueryEscape(requestID)
}

// ParseSendLink extracts the request id from a send deep link or path.
func ParseSendLink(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("malformed request link %q: %w", link, err)
	}
	if u.Path != "/send" && !strings.HasSuffix(u.Path, "/send") {
		return "", fmt.Errorf("not a request link: %q", link)
	}
	id := u.Query().Get("requestId")
	if id == "" {
		return "", fmt.Errorf("request link %q carries no request id", link)
	}
	return id, nil
}

package ident

import (
	"context"
	"io"
	"io/ioutil"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/cleanhttp"
)

const (
	DefaultURL = "http://v4.ident.me/"
	EnvURL     = "LMI_IDENT_URL"
)

var ErrBadAddress = errors.New("ident service returned an invalid address")

// URL is the ident service to ask, $LMI_IDENT_URL if set.
func URL() string {
	if u := os.Getenv(EnvURL); u != "" {
		return u
	}

	return DefaultURL
}

// Lookup asks the ident service at url for the caller's public address
// and returns it as a single host cidr block.
func Lookup(ctx context.Context, url string) (string, error) {
	if url == "" {
		url = URL()
	}

	resp, err := cleanhttp.Get(ctx, url)
	if err != nil {
		return "", errors.Wrapf(err, "querying %s", url)
	}

	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", errors.Errorf("querying %s: %s", url, resp.Status)
	}

	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}

	return HostCIDR(strings.TrimSpace(string(body)))
}

// HostCIDR turns a bare address into a cidr covering just that host.
func HostCIDR(addr string) (string, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return "", errors.Wrapf(ErrBadAddress, "%q", addr)
	}

	if v4 := ip.To4(); v4 != nil {
		return v4.String() + "/32", nil
	}

	return ip.String() + "/128", nil
}

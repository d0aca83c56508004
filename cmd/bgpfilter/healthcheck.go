package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3/ffcli"
)

func newHealthcheckCommand(env cliEnv) *ffcli.Command {
	fs := flag.NewFlagSet("bgpfilter healthcheck", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	target := fs.String("url", defaultListen, "服务地址（listen 地址或完整 URL）")
	timeout := fs.Duration("timeout", 2*time.Second, "探测超时")

	return &ffcli.Command{
		Name:       "healthcheck",
		ShortUsage: "bgpfilter healthcheck [-url addr] [-timeout d]",
		ShortHelp:  "探测 /healthz，用于容器健康检查",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			u, err := deriveHealthzURL(*target)
			if err != nil {
				return err
			}
			return runHealthcheck(u, *timeout)
		},
	}
}

// deriveHealthzURL turns a listen address or base URL into the /healthz URL.
// Wildcard hosts are probed on loopback.
func deriveHealthzURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty address")
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("invalid url %q", s)
		}
		if u.Path == "" || u.Path == "/" {
			u.Path = "/healthz"
		}
		return u.String(), nil
	}

	if !strings.Contains(s, ":") {
		// Bare port.
		s = ":" + s
	}
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", s, err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/healthz", nil
}

func runHealthcheck(u string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return nil
}

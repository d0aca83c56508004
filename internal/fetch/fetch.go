// Package fetch downloads RouterOS export text for URL imports.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
)

const (
	Stage = "fetch_config"

	DefaultTimeout      = 15 * time.Second
	DefaultMaxBytes     = 2 * 1024 * 1024
	DefaultMaxRedirects = 5
	DefaultUserAgent    = "bgpfilter-go"
)

type Options struct {
	Timeout      time.Duration // default 15s
	MaxBytes     int64         // default 2 MiB
	MaxRedirects int           // default 5
	UserAgent    string

	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBytes == 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.MaxRedirects == 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Transport == nil {
		o.Transport = http.DefaultTransport
	}
	return o
}

type FetchError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects  = errors.New("too many redirects")
	errRedirectBadScheme = errors.New("redirect target scheme is not http/https")
	errBadScheme         = errors.New("invalid url or scheme")
)

// Text fetches rawURL and returns its body as UTF-8 text.
func Text(ctx context.Context, rawURL string, opt Options) (string, error) {
	opt = opt.withDefaults()
	fail := func(status int, code, msg string, cause error) error {
		return &FetchError{
			Status: status,
			AppError: model.AppError{
				Code:    code,
				Message: msg,
				Stage:   Stage,
				URL:     rawURL,
			},
			Cause: cause,
		}
	}

	if opt.MaxBytes < 0 {
		return "", fail(http.StatusBadRequest, "INVALID_ARGUMENT", "响应大小上限必须大于 0", nil)
	}
	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fail(http.StatusBadRequest, "INVALID_ARGUMENT", "仅允许 http/https URL", errors.Join(errBadScheme, err))
	}

	client := &http.Client{
		Timeout:   opt.Timeout,
		Transport: opt.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// len(via) is the number of redirects already followed.
			if len(via) > opt.MaxRedirects {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errRedirectBadScheme
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fail(http.StatusBadRequest, "INVALID_ARGUMENT", "请求 URL 不合法", err)
	}
	req.Header.Set("User-Agent", opt.UserAgent)
	req.Header.Set("Accept", "text/plain, */*")

	resp, err := client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, errTooManyRedirects):
			return "", fail(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("重定向次数超过上限（>%d）", opt.MaxRedirects), err)
		case errors.Is(err, errRedirectBadScheme):
			return "", fail(http.StatusBadRequest, "INVALID_ARGUMENT", "重定向目标仅允许 http/https", err)
		case isTimeout(err):
			return "", fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程配置超时", err)
		}
		return "", fail(http.StatusBadGateway, "FETCH_FAILED", "拉取远程配置失败", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fail(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("上游返回非 2xx 状态码：%d", resp.StatusCode), nil)
	}

	// Read one extra byte so overflow is detected without trusting Content-Length.
	body, err := io.ReadAll(io.LimitReader(resp.Body, opt.MaxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return "", fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程配置超时", err)
		}
		return "", fail(http.StatusBadGateway, "FETCH_FAILED", "读取上游响应失败", err)
	}
	if int64(len(body)) > opt.MaxBytes {
		return "", fail(http.StatusUnprocessableEntity, "TOO_LARGE", fmt.Sprintf("远程配置过大（>%d bytes）", opt.MaxBytes), nil)
	}
	if !utf8.Valid(body) {
		return "", fail(http.StatusUnprocessableEntity, "FETCH_INVALID_UTF8", "远程配置不是合法 UTF-8 文本", nil)
	}
	return string(body), nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

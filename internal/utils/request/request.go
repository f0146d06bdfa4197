package request

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// New returns a resty client for upstream APIs.
func New(timeout time.Duration, retryCount int) *resty.Client {
	return resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
	}).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetHeader("Accept", "application/json")
}

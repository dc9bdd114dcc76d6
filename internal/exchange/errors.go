package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	ccxt "github.com/ccxt/ccxt/go/v4"
)

// ErrMaintenance 表示交易所处于维护状态，重试没有意义。
var ErrMaintenance = errors.New("exchange: 交易所维护中")

// classifyError 归一化交易所错误，并给出是否值得重试。
// 维护状态包装为 ErrMaintenance；ctx 取消、未知错误均不重试。
func classifyError(err error) (error, bool) {
	if err == nil {
		return nil, false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err, false
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		if ccxtErr.Type == ccxt.OnMaintenanceErrType {
			message := strings.TrimSpace(ccxtErr.Message)
			if message == "" {
				message = "exchange under maintenance"
			}
			return fmt.Errorf("%w: %s", ErrMaintenance, message), false
		}
		return err, transient(ccxtErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return err, true
	}

	return err, false
}

// transient 网络、限频与空响应类错误可重试。
func transient(e *ccxt.Error) bool {
	switch e.Type {
	case ccxt.NetworkErrorErrType,
		ccxt.RequestTimeoutErrType,
		ccxt.ExchangeNotAvailableErrType,
		ccxt.RateLimitExceededErrType,
		ccxt.DDoSProtectionErrType,
		ccxt.BadResponseErrType,
		ccxt.NullResponseErrType:
		return true
	}
	return false
}

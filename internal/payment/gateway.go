package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gateway prepares the client-side parameters a wallet app needs to start
// paying. Settlement arrives later through the callback endpoint.
type Gateway interface {
	Prepare(ctx context.Context, p *Payment) (map[string]string, error)
}

type mockGateway struct {
	wechatAppID string
	alipayAppID string
	now         func() time.Time
}

// NewMockGateway returns simulated wechat/alipay parameters. It performs
// no network calls.
func NewMockGateway(wechatAppID, alipayAppID string) Gateway {
	if wechatAppID == "" {
		wechatAppID = "mock_app_id"
	}
	if alipayAppID == "" {
		alipayAppID = "mock_alipay"
	}
	return &mockGateway{wechatAppID: wechatAppID, alipayAppID: alipayAppID, now: time.Now}
}

func (g *mockGateway) Prepare(ctx context.Context, p *Payment) (map[string]string, error) {
	now := g.now()
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	amount := p.Amount.StringFixed(2)

	params := map[string]string{
		"paymentNo": p.PaymentNo,
		"amount":    amount,
		"timestamp": strconv.FormatInt(now.UnixMilli(), 10),
		"nonceStr":  nonce,
	}

	switch p.Method {
	case MethodWechat:
		params["appId"] = g.wechatAppID
		params["timeStamp"] = strconv.FormatInt(now.Unix(), 10)
		params["package"] = fmt.Sprintf("prepay_id=mock_prepay_%d_%d", p.ID, now.UnixMilli())
		params["signType"] = "MD5"
		params["paySign"] = "mock_sign_" + nonce[:8]
	case MethodAlipay:
		params["orderInfo"] = fmt.Sprintf(
			`app_id=%s&biz_content={"out_trade_no":"%s","total_amount":"%s","subject":"restaurant order"}`,
			g.alipayAppID, p.PaymentNo, amount,
		)
		params["sign"] = "mock_alipay_sign_" + nonce[:8]
	default:
		return nil, fmt.Errorf("method %q has no gateway", p.Method)
	}

	return params, nil
}

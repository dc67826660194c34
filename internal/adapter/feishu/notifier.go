package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"repo-onboarder/internal/common"
	"repo-onboarder/internal/domain"
)

// 卡片里展示的指南摘要长度 (字符)
const excerptChars = 400

// Notifier 实现了 port.Notifier 接口，往飞书群机器人推送卡片
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	retryOpts  []common.Option
}

func NewNotifier(webhook string) *Notifier {
	if webhook == "" {
		log.Println("⚠️ 警告: 飞书 Webhook 为空，推送功能将无法工作！")
	}
	return &Notifier{
		webhookURL: webhook,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retryOpts: []common.Option{
			common.WithMaxRetries(3),
			common.WithInitialDelay(500 * time.Millisecond),
			common.WithOnRetry(func(attempt int, err error) {
				log.Printf("⚠️ 飞书推送失败，第 %d 次重试: %v", attempt, err)
			}),
		},
	}
}

// SetRetryOptions 覆盖默认的重试策略
func (n *Notifier) SetRetryOptions(opts ...common.Option) {
	n.retryOpts = opts
}

// Notify 发送飞书卡片消息 (Schema 2.0)，告知某个仓库的入职指南已生成
func (n *Notifier) Notify(ctx context.Context, guide *domain.Guide) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeNotification, "Webhook URL 为空")
	}

	body, err := json.Marshal(buildCard(guide))
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "序列化卡片失败", err)
	}

	// 发送请求 (带重试机制)，4xx 说明 Webhook 配置有问题，重试也没用
	err = common.Do(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if reqErr != nil {
			return common.Permanent(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, postErr := n.httpClient.Do(req)
		if postErr != nil {
			return postErr
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return common.Permanent(fmt.Errorf("飞书 API 报错: 状态码 %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("飞书 API 报错: 状态码 %d", resp.StatusCode)
		}
		return nil
	}, n.retryOpts...)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}

	return nil
}

// buildCard 构造 Schema 2.0 卡片
func buildCard(guide *domain.Guide) map[string]interface{} {
	title := fmt.Sprintf("📘 入职指南已生成: %s", guide.FullName)

	excerpt, truncated := domain.TruncateChars(guide.Content, excerptChars)
	if truncated {
		excerpt += "\n\n..."
	}

	mdContent := fmt.Sprintf(`**⭐ Stars:** %d  |  **语言:** %s  |  **模型:** %s
**📂 纳入文件:** %d 个  |  **🗑️ 丢弃:** %d 个
**🕒 生成时间:** %s

**📝 指南摘要:**
%s
`,
		guide.Stars, guide.Language, guide.Model,
		guide.FileCount, guide.DroppedFiles,
		guide.CreatedAt.Format("2006-01-02 15:04"),
		excerpt)

	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"config": map[string]interface{}{
				"update_multi": true,
			},
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": "blue",
			},
			"body": map[string]interface{}{
				"direction": "vertical",
				"elements": []map[string]interface{}{
					{
						"tag":       "markdown",
						"content":   mdContent,
						"text_size": "normal",
					},
					{
						"tag": "button",
						"text": map[string]interface{}{
							"tag":     "plain_text",
							"content": "🔗 查看源码",
						},
						"type": "primary",
						"behaviors": []map[string]interface{}{
							{
								"type":        "open_url",
								"default_url": guide.URL,
							},
						},
					},
				},
			},
		},
	}
}

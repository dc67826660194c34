package feishu

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"repo-onboarder/internal/common"
	"repo-onboarder/internal/domain"

	"github.com/stretchr/testify/assert"
)

// mockFeishuServer 创建模拟的飞书 Webhook 服务器
func mockFeishuServer(t *testing.T, statusCode int, hits *int32, validatePayload func(*testing.T, map[string]interface{})) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var payload map[string]interface{}
		assert.NoError(t, json.Unmarshal(body, &payload))

		if validatePayload != nil {
			validatePayload(t, payload)
		}

		w.WriteHeader(statusCode)
		w.Write([]byte(`{"code": 0, "msg": "success"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

// fastNotifier 缩短重试间隔，避免测试变慢
func fastNotifier(url string) *Notifier {
	n := NewNotifier(url)
	n.SetRetryOptions(common.WithMaxRetries(2), common.WithInitialDelay(time.Millisecond))
	return n
}

func testGuide() *domain.Guide {
	return &domain.Guide{
		ID:           "spf13/cobra@1700000000",
		Owner:        "spf13",
		Repo:         "cobra",
		FullName:     "spf13/cobra",
		URL:          "https://github.com/spf13/cobra",
		Language:     "Go",
		Stars:        38000,
		Model:        "gemini-2.5-flash",
		FileCount:    4,
		DroppedFiles: 1,
		Content:      "# cobra\n\n## What This Project Does\nA CLI framework.",
		CreatedAt:    time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestNotifier_Notify_PayloadStructure(t *testing.T) {
	guide := testGuide()

	server := mockFeishuServer(t, http.StatusOK, nil, func(t *testing.T, payload map[string]interface{}) {
		assert.Equal(t, "interactive", payload["msg_type"])

		card, ok := payload["card"].(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, "2.0", card["schema"])

		config, ok := card["config"].(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, true, config["update_multi"])

		// 验证 header
		header, ok := card["header"].(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, "blue", header["template"])
		title, ok := header["title"].(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, "plain_text", title["tag"])
		assert.Contains(t, title["content"], "spf13/cobra")

		// 验证 body
		body, ok := card["body"].(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, "vertical", body["direction"])
		elements, ok := body["elements"].([]interface{})
		assert.True(t, ok)
		assert.Equal(t, 2, len(elements))

		// 验证 markdown 元素
		markdownElement := elements[0].(map[string]interface{})
		assert.Equal(t, "markdown", markdownElement["tag"])
		content := markdownElement["content"].(string)
		assert.Contains(t, content, "38000")
		assert.Contains(t, content, "Go")
		assert.Contains(t, content, "gemini-2.5-flash")
		assert.Contains(t, content, "4 个")
		assert.Contains(t, content, "2024-05-01 10:30")
		assert.Contains(t, content, "A CLI framework.")
		assert.NotContains(t, content, "...")

		// 验证 button 元素
		buttonElement := elements[1].(map[string]interface{})
		assert.Equal(t, "button", buttonElement["tag"])
		behaviors := buttonElement["behaviors"].([]interface{})
		assert.Equal(t, 1, len(behaviors))
		behavior := behaviors[0].(map[string]interface{})
		assert.Equal(t, "open_url", behavior["type"])
		assert.Equal(t, guide.URL, behavior["default_url"])
	})

	err := fastNotifier(server.URL).Notify(context.Background(), guide)
	assert.NoError(t, err)
}

func TestNotifier_Notify_LongGuideIsExcerpted(t *testing.T) {
	guide := testGuide()
	guide.Content = strings.Repeat("指", excerptChars+50)

	server := mockFeishuServer(t, http.StatusOK, nil, func(t *testing.T, payload map[string]interface{}) {
		card := payload["card"].(map[string]interface{})
		body := card["body"].(map[string]interface{})
		elements := body["elements"].([]interface{})
		content := elements[0].(map[string]interface{})["content"].(string)

		assert.Contains(t, content, strings.Repeat("指", excerptChars)+"\n\n...")
		assert.NotContains(t, content, strings.Repeat("指", excerptChars+1))
	})

	assert.NoError(t, fastNotifier(server.URL).Notify(context.Background(), guide))
}

func TestNotifier_Notify_ErrorCases(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantHits   int32
	}{
		// 4xx 不重试
		{name: "飞书 API 返回 400 错误", statusCode: http.StatusBadRequest, wantHits: 1},
		{name: "飞书 API 返回 403 Forbidden", statusCode: http.StatusForbidden, wantHits: 1},
		// 5xx 重试 2 次，共 3 次请求
		{name: "飞书 API 返回 500 错误", statusCode: http.StatusInternalServerError, wantHits: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			server := mockFeishuServer(t, tt.statusCode, &hits, nil)

			err := fastNotifier(server.URL).Notify(context.Background(), testGuide())

			assert.Error(t, err)
			assert.Contains(t, err.Error(), "飞书 API 报错")
			assert.True(t, common.IsCode(err, common.ErrCodeNotification))
			assert.Equal(t, tt.wantHits, atomic.LoadInt32(&hits))
		})
	}
}

func TestNotifier_Notify_EmptyWebhook(t *testing.T) {
	err := NewNotifier("").Notify(context.Background(), testGuide())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Webhook URL 为空")
	assert.True(t, common.IsCode(err, common.ErrCodeNotification))
}

func TestNotifier_Notify_ContextCancellation(t *testing.T) {
	slowServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer slowServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := fastNotifier(slowServer.URL).Notify(ctx, testGuide())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "发送请求失败")
	assert.Less(t, time.Since(start), 2*time.Second)
}

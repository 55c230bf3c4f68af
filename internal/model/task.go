package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/taskvault/taskvault/internal/consts"
)

// Task 描述一条属于单个用户的待办任务。Owner 在创建时由认证身份写入，此后不可变。
type Task struct {
	ID          string          `gorm:"primaryKey;size:24" json:"_id"` // 24 位十六进制，服务端生成
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    consts.Priority `gorm:"size:8" json:"priority"` // Low/Medium/High
	DueDate     *time.Time      `json:"dueDate"`                // optional, null when unset
	Completed   bool            `json:"completed"`
	OwnerID     string          `gorm:"index;size:24" json:"owner"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (Task) TableName() string { return "tasks" }

// NormalizeCompleted 归一化 completed 的边界编码：true / "Yes" / "true" / 1 视为 true，
// 其余一律 false。整个系统只允许在出入口调用这一个函数，禁止在 handler 里重复判断。
func NormalizeCompleted(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.TrimSpace(t)
		return s == "Yes" || strings.EqualFold(s, "true")
	case float64: // JSON numbers decode as float64
		return t == 1
	case int:
		return t == 1
	case json.Number:
		return t.String() == "1"
	default:
		return false
	}
}

// ParseDueDate 解析客户端送入的到期日。接受 RFC3339 与普通日期两种写法。
func ParseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

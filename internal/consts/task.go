package consts

// Priority 表示任务优先级枚举，防止魔法字符串。
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium" // default when the client omits it
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the three accepted values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

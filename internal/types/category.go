package types

// TaskCategory is one of the fixed labels a request is classified into.
// The category decides which handler answers the request.
type TaskCategory string

const (
	TaskGeneralConversation  TaskCategory = "general_conversation"
	TaskSummarization        TaskCategory = "summarization"
	TaskComparison           TaskCategory = "comparison"
	TaskDataAnalysisForecast TaskCategory = "data_analysis_forecast"
	TaskFileQA               TaskCategory = "file_qa"
	TaskUnknown              TaskCategory = "unknown"
)

func ParseTaskCategory(s string) (TaskCategory, bool) {
	switch TaskCategory(s) {
	case TaskGeneralConversation, TaskSummarization, TaskComparison,
		TaskDataAnalysisForecast, TaskFileQA, TaskUnknown:
		return TaskCategory(s), true
	default:
		return "", false
	}
}

// AllTaskCategories lists every category a classifier may return,
// in rubric order.
func AllTaskCategories() []TaskCategory {
	return []TaskCategory{
		TaskGeneralConversation,
		TaskSummarization,
		TaskComparison,
		TaskDataAnalysisForecast,
		TaskFileQA,
		TaskUnknown,
	}
}

// TaskClassification is the classifier's verdict for one request.
type TaskClassification struct {
	Category   TaskCategory `json:"category"`
	Confidence float64      `json:"confidence"`
}

// SecurityAssessment is the security auditor's verdict for one request.
// RiskFlags is non-empty exactly when IsSafe is false.
type SecurityAssessment struct {
	IsSafe    bool     `json:"is_safe"`
	RiskFlags []string `json:"risk_flags,omitempty"`
}

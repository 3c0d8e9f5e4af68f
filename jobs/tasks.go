package jobs

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup recomputes cached dashboard summaries.
	TaskDashboardWarmup = "dashboard:warmup"
)

// warmupDedupWindow collapses bursts of writes to the same company into one warmup.
const warmupDedupWindow = 30 * time.Second

// DashboardWarmupPayload selects the company to warm. Zero warms every company.
type DashboardWarmupPayload struct {
	CompanyID int64 `json:"company_id,omitempty"`
}

// NewDashboardWarmupTask constructs an Asynq task for the dashboard warmup.
func NewDashboardWarmupTask(companyID int64) (*asynq.Task, error) {
	data, err := json.Marshal(DashboardWarmupPayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute)), nil
}

func warmupTaskID(companyID int64, now time.Time) string {
	window := now.Truncate(warmupDedupWindow).Unix()
	return TaskDashboardWarmup + ":" + strconv.FormatInt(companyID, 10) + ":" + strconv.FormatInt(window, 10)
}

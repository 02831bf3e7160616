package ports

import (
	"github.com/hibiken/asynq"
)

// TaskEnqueuer schedules background work. *asynq.Client implements it.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector looks up queued and finished tasks. *asynq.Inspector implements it.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

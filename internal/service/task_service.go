package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskvault/taskvault/internal/apperr"
	"github.com/taskvault/taskvault/internal/consts"
	"github.com/taskvault/taskvault/internal/dao"
	"github.com/taskvault/taskvault/internal/logging"
	"github.com/taskvault/taskvault/internal/model"
)

// TaskInput carries the create payload. Completed stays untyped until
// model.NormalizeCompleted runs, so legacy encodings ("Yes", 1) survive
// JSON decoding.
type TaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     string
	Completed   any
}

// TaskService 负责任务 CRUD 的业务规则。属主永远取认证身份，绝不读请求体。
type TaskService struct {
	taskDao dao.TaskDao
}

func NewTaskService(taskDao dao.TaskDao) *TaskService {
	return &TaskService{taskDao: taskDao}
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskInput) (*model.Task, *apperr.Error) {
	if in.Title == "" || in.Description == "" {
		return nil, apperr.Validation("Title and description are required fields.")
	}

	priority := consts.PriorityMedium
	if in.Priority != "" {
		priority = consts.Priority(in.Priority)
		if !priority.Valid() {
			return nil, apperr.Validation("Priority must be one of Low, Medium or High.")
		}
	}

	var dueDate *time.Time
	if in.DueDate != "" {
		ts, ok := model.ParseDueDate(in.DueDate)
		if !ok {
			return nil, apperr.Validation("Invalid due date format.")
		}
		dueDate = &ts
	}

	t := &model.Task{
		ID:          model.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     dueDate,
		Completed:   model.NormalizeCompleted(in.Completed),
		OwnerID:     ownerID,
	}
	if err := s.taskDao.Create(ctx, t); err != nil {
		return nil, apperr.Internal(err)
	}
	logging.Info(ctx, "task created", zap.String("task_id", t.ID), zap.String("owner_id", ownerID))
	return t, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string) ([]*model.Task, *apperr.Error) {
	list, err := s.taskDao.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*model.Task, *apperr.Error) {
	if !model.ValidID(id) {
		return nil, apperr.Validation("Invalid task ID format.")
	}
	t, err := s.taskDao.Get(ctx, id, ownerID)
	if err != nil {
		if dao.IsNotFound(err) {
			return nil, apperr.NotFound("Task not found or unauthorized access.")
		}
		return nil, apperr.Internal(err)
	}
	return t, nil
}

// Update merges the present keys of patch over the owned record. Field rules
// match Create; owner and id are never merged. A miss (absent or owned by
// someone else) is a plain not found either way.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, patch map[string]any) (*model.Task, *apperr.Error) {
	if !model.ValidID(id) {
		return nil, apperr.Validation("Invalid task ID format.")
	}

	updates := map[string]any{}
	if v, ok := patch["title"]; ok {
		title, _ := v.(string)
		if title == "" {
			return nil, apperr.Validation("Title and description are required fields.")
		}
		updates["title"] = title
	}
	if v, ok := patch["description"]; ok {
		desc, _ := v.(string)
		if desc == "" {
			return nil, apperr.Validation("Title and description are required fields.")
		}
		updates["description"] = desc
	}
	if v, ok := patch["priority"]; ok {
		p, _ := v.(string)
		if !consts.Priority(p).Valid() {
			return nil, apperr.Validation("Priority must be one of Low, Medium or High.")
		}
		updates["priority"] = p
	}
	if v, ok := patch["dueDate"]; ok {
		switch d := v.(type) {
		case nil:
			updates["due_date"] = nil // explicit null clears the due date
		case string:
			if d == "" {
				updates["due_date"] = nil
				break
			}
			ts, okParse := model.ParseDueDate(d)
			if !okParse {
				return nil, apperr.Validation("Invalid due date format.")
			}
			updates["due_date"] = ts
		default:
			return nil, apperr.Validation("Invalid due date format.")
		}
	}
	if v, ok := patch["completed"]; ok {
		updates["completed"] = model.NormalizeCompleted(v)
	}

	// touch updated_at even for no-op patches so the affected-rows check
	// below stays a reliable ownership signal
	updates["updated_at"] = time.Now().UTC()

	rows, err := s.taskDao.Update(ctx, id, ownerID, updates)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if rows == 0 {
		return nil, apperr.NotFound("Task not found or you are not authorized to update it.")
	}

	t, err := s.taskDao.Get(ctx, id, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	logging.Info(ctx, "task updated", zap.String("task_id", id), zap.String("owner_id", ownerID))
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) *apperr.Error {
	if !model.ValidID(id) {
		return apperr.Validation("Invalid task ID format.")
	}
	rows, err := s.taskDao.Delete(ctx, id, ownerID)
	if err != nil {
		return apperr.Internal(err)
	}
	if rows == 0 {
		return apperr.NotFound("Task not found or you are not authorized to delete it.")
	}
	logging.Info(ctx, "task deleted", zap.String("task_id", id), zap.String("owner_id", ownerID))
	return nil
}

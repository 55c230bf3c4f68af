package dao

import (
	"context"

	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/model"
)

// TaskDao 的每个读/改/删都带 (id, owner_id) 过滤：非属主永远命中 not found，
// 无法探测其他用户的任务是否存在。
type TaskDao interface {
	Create(ctx context.Context, t *model.Task) error
	Get(ctx context.Context, id, ownerID string) (*model.Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Task, error)
	Update(ctx context.Context, id, ownerID string, updates map[string]any) (int64, error)
	Delete(ctx context.Context, id, ownerID string) (int64, error)
}

type taskDaoImpl struct{ db *gorm.DB }

func NewTaskDao(db *gorm.DB) TaskDao { return &taskDaoImpl{db: db} }

func (r *taskDaoImpl) Create(ctx context.Context, t *model.Task) error {
	if t.ID == "" {
		t.ID = model.NewID()
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *taskDaoImpl) Get(ctx context.Context, id, ownerID string) (*model.Task, error) {
	var t model.Task
	if err := r.db.WithContext(ctx).Where("id=? AND owner_id=?", id, ownerID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByOwner returns all tasks owned by ownerID, newest created first. The
// id tiebreak keeps ordering stable for rows created in the same tick.
func (r *taskDaoImpl) ListByOwner(ctx context.Context, ownerID string) ([]*model.Task, error) {
	list := []*model.Task{}
	if err := r.db.WithContext(ctx).
		Where("owner_id=?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update applies a partial column map in one ownership-scoped UPDATE.
// Returns rows affected; 0 means not owned or absent (caller cannot tell
// which). Last write wins on concurrent updates.
func (r *taskDaoImpl) Update(ctx context.Context, id, ownerID string, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id=? AND owner_id=?", id, ownerID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *taskDaoImpl) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id=? AND owner_id=?", id, ownerID).Delete(&model.Task{})
	return res.RowsAffected, res.Error
}

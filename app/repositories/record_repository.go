// Package repositories 数据访问层
package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"checkout/app/models/record"
	"checkout/pkg/checkout"
	"checkout/pkg/database"
)

// RecordRepository 结账记录仓库
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository 创建仓库实例
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{
		db: database.DB,
	}
}

// Create 创建结账记录，入库前先做字段校验
func (r *RecordRepository) Create(ctx context.Context, rec *record.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

// UpdateState 更新会话状态与轮询进度
// 进入终止状态时一并写入终结时间
func (r *RecordRepository) UpdateState(ctx context.Context, sessionID string, state checkout.State, attempts int, message string) error {
	updates := map[string]interface{}{
		"state":    string(state),
		"attempts": attempts,
		"message":  message,
	}
	if state.Terminal() {
		now := time.Now()
		updates["finalized_at"] = &now
	}

	return r.db.WithContext(ctx).
		Model(&record.Record{}).
		Where("session_id = ?", sessionID).
		Updates(updates).Error
}

// GetBySessionID 根据会话 ID 获取记录
func (r *RecordRepository) GetBySessionID(ctx context.Context, sessionID string) (*record.Record, error) {
	var rec record.Record
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByOrderID 根据订单号获取记录
func (r *RecordRepository) GetByOrderID(ctx context.Context, orderID string) (*record.Record, error) {
	var rec record.Record
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByUserID 分页获取用户的结账历史，按创建时间倒序
func (r *RecordRepository) GetByUserID(ctx context.Context, userID string, page, perPage int) ([]record.Record, int64, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 10
	}

	var total int64
	query := r.db.WithContext(ctx).Model(&record.Record{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []record.Record
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

package record

import (
	"time"
)

// Record 结账会话落库记录
// Redis 里的快照有 TTL，落库记录是永久的历史账本
type Record struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID   string     `gorm:"type:varchar(36);uniqueIndex" json:"session_id"`
	OrderID     string     `gorm:"type:varchar(64);index" json:"order_id"`
	UserID      string     `gorm:"type:varchar(36);index" json:"user_id"`
	Method      string     `gorm:"type:varchar(20)" json:"method"`
	Device      string     `gorm:"type:varchar(20)" json:"device"`
	Action      string     `gorm:"type:varchar(20)" json:"action"`
	Amount      int64      `gorm:"" json:"amount"`
	State       string     `gorm:"type:varchar(20);index" json:"state"`
	Attempts    int        `gorm:"" json:"attempts"`
	Message     string     `gorm:"type:varchar(255)" json:"message"`
	CreatedAt   time.Time  `gorm:"" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"" json:"updated_at"`
	FinalizedAt *time.Time `gorm:"" json:"finalized_at"`
}

// TableName 指定表名
func (Record) TableName() string {
	return "checkout_records"
}

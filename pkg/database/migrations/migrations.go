package migrations

import (
	checkoutrecord "checkout/app/models/record"
)

// RegisterTables 返回需要迁移的表的模型列表
func RegisterTables() []interface{} {
	return []interface{}{
		&checkoutrecord.Record{},
	}
}

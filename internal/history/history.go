/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package history persists the outcome of every watchdog run to a local
// SQLite database.
// history 包将每次看门狗运行的结果持久化到本地 SQLite 数据库。
//
// The history is diagnostic only: a failure to record never fails a run,
// and the store is capped so it cannot grow without bound under the
// five-minute cadence.
// 历史仅用于诊断：记录失败绝不会使运行失败，存储有上限，在五分钟的调度
// 节奏下不会无限增长。
package history

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CheckRecord is one persisted watchdog run.
// CheckRecord 是一次持久化的看门狗运行。
type CheckRecord struct {
	ID uint `gorm:"primarykey"`

	// RanAt is when the run happened / 运行发生的时间
	RanAt time.Time `gorm:"index"`

	// Verdict is the staleness verdict (healthy, stale, indeterminate)
	// Verdict 是过期判定（healthy、stale、indeterminate）
	Verdict string

	// ElapsedSeconds is the observed staleness / 观察到的过期时间（秒）
	ElapsedSeconds int64

	// ThresholdSeconds is the threshold in force / 生效的阈值（秒）
	ThresholdSeconds int64

	// Restarted reports whether a restart was issued / 是否发出了重启
	Restarted bool

	// Reason is the restart-guard branch taken, empty for healthy runs
	// Reason 是重启守卫所走的分支，健康运行时为空
	Reason string

	// Error is the run failure, empty on success / 运行失败信息，成功时为空
	Error string
}

// Repository provides data access operations for CheckRecord entities.
// Repository 提供 CheckRecord 实体的数据访问操作。
type Repository struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the SQLite history store at path and
// migrates the schema.
// Open 打开（必要时创建）path 处的 SQLite 历史存储并迁移表结构。
func Open(path string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CheckRecord{}); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// NewRepository wraps an existing database handle, for tests.
// NewRepository 包装一个已有的数据库句柄，用于测试。
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append stores one run outcome.
// Append 存储一次运行结果。
func (r *Repository) Append(ctx context.Context, rec *CheckRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Recent returns the latest n records, newest first.
// Recent 返回最新的 n 条记录，最新的在前。
func (r *Repository) Recent(ctx context.Context, n int) ([]CheckRecord, error) {
	var records []CheckRecord
	err := r.db.WithContext(ctx).
		Order("ran_at DESC, id DESC").
		Limit(n).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Prune deletes all but the newest keep records.
// Prune 删除除最新 keep 条之外的所有记录。
func (r *Repository) Prune(ctx context.Context, keep int) error {
	return r.db.WithContext(ctx).
		Where("id NOT IN (?)",
			r.db.Model(&CheckRecord{}).
				Select("id").
				Order("ran_at DESC, id DESC").
				Limit(keep),
		).
		Delete(&CheckRecord{}).Error
}

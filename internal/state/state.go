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

// Package state reads the supervised service's state file and decides whether
// the service is still alive.
// state 包读取被监管服务的状态文件，并判断服务是否仍然存活。
//
// This package provides:
// 此包提供：
// - State record parsing / 状态记录解析
// - Staleness verdicts (healthy, stale, indeterminate) / 过期判定（健康、过期、无法判定）
//
// All time arithmetic uses Unix epoch seconds (UTC-based), the same clock
// convention the supervised service uses when writing the record. Local
// timezone never enters the computation.
// 所有时间计算都使用 Unix 纪元秒（基于 UTC），与被监管服务写入记录时使用的
// 时钟约定一致。本地时区不参与计算。
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"
)

// Errors for state file handling
// 状态文件处理的错误定义
var (
	// ErrInvalidRecord indicates the state file parsed but carries no usable
	// last-update timestamp.
	// ErrInvalidRecord 表示状态文件可以解析，但不包含可用的最后更新时间戳。
	ErrInvalidRecord = errors.New("state: record has no last_update_ts")

	// ErrThresholdNotPositive indicates a zero or negative staleness threshold.
	// ErrThresholdNotPositive 表示过期阈值为零或负数。
	ErrThresholdNotPositive = errors.New("state: threshold must be positive")
)

// Verdict is the outcome of a single liveness check.
// Verdict 是单次存活检查的结果。
type Verdict string

const (
	// VerdictHealthy means the service reported activity within the threshold.
	// VerdictHealthy 表示服务在阈值内报告过活动。
	VerdictHealthy Verdict = "healthy"

	// VerdictStale means the last reported activity is older than the threshold.
	// VerdictStale 表示最后报告的活动早于阈值。
	VerdictStale Verdict = "stale"

	// VerdictIndeterminate means the state file is missing, so health cannot
	// be determined. This is explicitly not treated as unhealthy.
	// VerdictIndeterminate 表示状态文件缺失，无法判定健康状况。
	// 这明确不被视为不健康。
	VerdictIndeterminate Verdict = "indeterminate"
)

// Record is the state file written by the supervised service. The watchdog
// only ever reads it.
// Record 是被监管服务写入的状态文件。看门狗只读取它。
type Record struct {
	// LastUpdateTS is the Unix time (seconds, UTC) of the last confirmed
	// successful connection.
	// LastUpdateTS 是最后一次确认成功连接的 Unix 时间（秒，UTC）。
	LastUpdateTS int64 `json:"last_update_ts"`
}

// LoadRecord reads and parses the state file at path.
// LoadRecord 读取并解析 path 处的状态文件。
func LoadRecord(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("state: read %s: %w", path, err)
	}

	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("state: parse %s: %w", path, err)
	}
	if rec.LastUpdateTS <= 0 {
		return nil, ErrInvalidRecord
	}
	return &rec, nil
}

// Result describes the outcome of one check.
// Result 描述一次检查的结果。
type Result struct {
	Verdict Verdict `json:"verdict"`

	// Elapsed is the number of seconds since the last reported activity.
	// Meaningless when the verdict is indeterminate.
	// Elapsed 是自最后报告的活动以来经过的秒数。判定为无法判定时无意义。
	Elapsed int64 `json:"elapsed"`

	// Threshold is the configured staleness threshold in seconds.
	// Threshold 是配置的过期阈值（秒）。
	Threshold int64 `json:"threshold"`

	// LastUpdate is the raw timestamp taken from the record.
	// LastUpdate 是从记录中读取的原始时间戳。
	LastUpdate int64 `json:"last_update"`
}

// Message returns the human-readable log line for this result. The wording is
// kept stable: external tooling greps the run log for it.
// Message 返回此结果的人类可读日志行。措辞保持稳定：外部工具会在运行日志中
// 检索它。
func (r *Result) Message() string {
	switch r.Verdict {
	case VerdictHealthy:
		return fmt.Sprintf("last update %d seconds ago (< %d), service considered alive", r.Elapsed, r.Threshold)
	case VerdictStale:
		return fmt.Sprintf("last update %d seconds ago (> %d), service considered hung", r.Elapsed, r.Threshold)
	default:
		return "state file not found, liveness not checked"
	}
}

// Checker computes the staleness verdict for a state file.
// Checker 为状态文件计算过期判定。
type Checker struct {
	threshold int64
	now       func() time.Time
	logger    *zap.Logger
}

// NewChecker creates a Checker. The threshold is in seconds and must be
// positive.
// NewChecker 创建一个 Checker。阈值以秒为单位，必须为正数。
func NewChecker(thresholdSeconds int, logger *zap.Logger) (*Checker, error) {
	if thresholdSeconds <= 0 {
		return nil, ErrThresholdNotPositive
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		threshold: int64(thresholdSeconds),
		now:       time.Now,
		logger:    logger,
	}, nil
}

// SetNow overrides the clock, for tests.
// SetNow 覆盖时钟，用于测试。
func (c *Checker) SetNow(now func() time.Time) {
	c.now = now
}

// Check reads the state file and returns the verdict.
// Check 读取状态文件并返回判定结果。
//
// A missing file yields VerdictIndeterminate and no error: the watchdog
// cannot tell whether the service is healthy, so it must not restart it.
// Any other read or parse failure is returned as an error.
// 文件缺失时返回 VerdictIndeterminate 且无错误：看门狗无法判断服务是否健康，
// 因此不得重启它。其他读取或解析失败作为错误返回。
func (c *Checker) Check(path string) (*Result, error) {
	rec, err := LoadRecord(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res := &Result{Verdict: VerdictIndeterminate, Threshold: c.threshold}
			c.logger.Warn("state file not found, liveness not checked",
				zap.String("path", path))
			return res, nil
		}
		return nil, err
	}

	// elapsed > threshold is stale; elapsed == threshold is still healthy.
	// elapsed > threshold 为过期；elapsed == threshold 仍为健康。
	elapsed := c.now().Unix() - rec.LastUpdateTS
	res := &Result{
		Verdict:    VerdictHealthy,
		Elapsed:    elapsed,
		Threshold:  c.threshold,
		LastUpdate: rec.LastUpdateTS,
	}
	if elapsed > c.threshold {
		res.Verdict = VerdictStale
	}

	c.logger.Info("liveness check",
		zap.Int64("elapsed_seconds", elapsed),
		zap.Int64("threshold_seconds", c.threshold),
		zap.String("verdict", string(res.Verdict)))

	return res, nil
}

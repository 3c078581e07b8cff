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

package state

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStateFile writes a state file with the given timestamp.
// writeStateFile 写入带有给定时间戳的状态文件。
func writeStateFile(t *testing.T, ts int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	content := fmt.Sprintf(`{"last_update_ts": %d}`, ts)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// fixedClock returns a clock pinned to the given Unix time.
// fixedClock 返回固定在给定 Unix 时间的时钟。
func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

// TestChecker_RecentUpdateIsHealthy tests the healthy path: last update 30
// seconds ago with a 90 second threshold.
// TestChecker_RecentUpdateIsHealthy 测试健康路径：90 秒阈值下 30 秒前的更新。
func TestChecker_RecentUpdateIsHealthy(t *testing.T) {
	now := int64(1663263000)
	path := writeStateFile(t, now-30)

	c, err := NewChecker(90, nil)
	require.NoError(t, err)
	c.SetNow(fixedClock(now))

	res, err := c.Check(path)
	require.NoError(t, err)

	assert.Equal(t, VerdictHealthy, res.Verdict)
	assert.Equal(t, int64(30), res.Elapsed)
	assert.Equal(t, "last update 30 seconds ago (< 90), service considered alive", res.Message())
}

// TestChecker_OldUpdateIsStale tests the stale path: last update 400 seconds
// ago with a 300 second threshold.
// TestChecker_OldUpdateIsStale 测试过期路径：300 秒阈值下 400 秒前的更新。
func TestChecker_OldUpdateIsStale(t *testing.T) {
	now := int64(1663263000)
	path := writeStateFile(t, now-400)

	c, err := NewChecker(300, nil)
	require.NoError(t, err)
	c.SetNow(fixedClock(now))

	res, err := c.Check(path)
	require.NoError(t, err)

	assert.Equal(t, VerdictStale, res.Verdict)
	assert.Equal(t, int64(400), res.Elapsed)
	assert.Equal(t, "last update 400 seconds ago (> 300), service considered hung", res.Message())
}

// TestChecker_ElapsedEqualToThresholdIsHealthy tests the boundary: only a
// strictly greater elapsed time is stale.
// TestChecker_ElapsedEqualToThresholdIsHealthy 测试边界：只有严格大于阈值的
// 经过时间才算过期。
func TestChecker_ElapsedEqualToThresholdIsHealthy(t *testing.T) {
	now := int64(1663263000)
	path := writeStateFile(t, now-300)

	c, err := NewChecker(300, nil)
	require.NoError(t, err)
	c.SetNow(fixedClock(now))

	res, err := c.Check(path)
	require.NoError(t, err)
	assert.Equal(t, VerdictHealthy, res.Verdict)
}

// TestChecker_MissingFileIsIndeterminate verifies a missing state file is
// reported as indeterminate, never as stale, and never as an error.
// TestChecker_MissingFileIsIndeterminate 验证状态文件缺失时报告为无法判定，
// 绝不报告为过期，也不报告为错误。
func TestChecker_MissingFileIsIndeterminate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	c, err := NewChecker(300, nil)
	require.NoError(t, err)

	res, err := c.Check(path)
	require.NoError(t, err)
	assert.Equal(t, VerdictIndeterminate, res.Verdict)
	assert.Equal(t, "state file not found, liveness not checked", res.Message())
}

// TestChecker_CorruptFileIsError verifies unparseable content fails the run.
// TestChecker_CorruptFileIsError 验证无法解析的内容导致运行失败。
func TestChecker_CorruptFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	c, err := NewChecker(300, nil)
	require.NoError(t, err)

	_, err = c.Check(path)
	assert.Error(t, err)
}

// TestChecker_RecordWithoutTimestampIsError verifies a record lacking the
// timestamp field is rejected.
// TestChecker_RecordWithoutTimestampIsError 验证缺少时间戳字段的记录被拒绝。
func TestChecker_RecordWithoutTimestampIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"other": 1}`), 0644))

	c, err := NewChecker(300, nil)
	require.NoError(t, err)

	_, err = c.Check(path)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

// TestNewChecker_RejectsNonPositiveThreshold verifies the configuration guard.
// TestNewChecker_RejectsNonPositiveThreshold 验证配置校验。
func TestNewChecker_RejectsNonPositiveThreshold(t *testing.T) {
	for _, threshold := range []int{0, -1, -300} {
		_, err := NewChecker(threshold, nil)
		assert.ErrorIs(t, err, ErrThresholdNotPositive, "threshold %d", threshold)
	}
}

// TestLoadRecord_ReadsTimestamp tests plain record parsing.
// TestLoadRecord_ReadsTimestamp 测试普通记录解析。
func TestLoadRecord_ReadsTimestamp(t *testing.T) {
	path := writeStateFile(t, 1663263000)

	rec, err := LoadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1663263000), rec.LastUpdateTS)
}

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

package watchdog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/config"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/guard"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/history"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/runlog"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/state"
)

// fakeController scripts the service manager's answers.
// fakeController 脚本化服务管理器的应答。
type fakeController struct {
	installed  bool
	status     guard.ServiceStatus
	restartErr error
	restarts   int
}

func (f *fakeController) Installed(ctx context.Context) (bool, error) { return f.installed, nil }

func (f *fakeController) Status(ctx context.Context) (guard.ServiceStatus, error) {
	return f.status, nil
}

func (f *fakeController) Restart(ctx context.Context) error {
	f.restarts++
	return f.restartErr
}

// fakeBootLog scripts the event log's boot-failure answer.
// fakeBootLog 脚本化事件日志的开机失败应答。
type fakeBootLog struct {
	failedAtBoot bool
}

func (f *fakeBootLog) StartTimeoutAtBoot(ctx context.Context) (bool, error) {
	return f.failedAtBoot, nil
}

// fixture is one fully wired watchdog over fakes and temp files.
// fixture 是一个基于伪实现和临时文件完整组装的看门狗。
type fixture struct {
	w       *Watchdog
	svc     *fakeController
	hist    *history.Repository
	logPath string
}

// newFixture builds a watchdog whose state file is lastUpdate seconds old
// against a 300 second threshold, at a pinned clock.
// newFixture 构建一个看门狗，其状态文件在固定时钟下相对 300 秒阈值已有
// lastUpdate 秒未更新。
func newFixture(t *testing.T, svc *fakeController, boot *fakeBootLog, stateAge int64, writeState bool) *fixture {
	t.Helper()

	dir := t.TempDir()
	now := time.Unix(1_663_263_000, 0)

	stateFile := filepath.Join(dir, "state.json")
	if writeState {
		payload := fmt.Sprintf(`{"last_update_ts": %d}`, now.Unix()-stateAge)
		require.NoError(t, os.WriteFile(stateFile, []byte(payload), 0644))
	}

	cfg := &config.Config{
		Watchdog: config.WatchdogConfig{
			Threshold:   300,
			ServiceName: "rport",
			StateFile:   stateFile,
		},
		History: config.HistoryConfig{Enabled: true, Keep: 100},
	}

	checker, err := state.NewChecker(cfg.Watchdog.Threshold, nil)
	require.NoError(t, err)
	checker.SetNow(func() time.Time { return now })

	hist, err := history.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)

	logPath := filepath.Join(dir, "watchdog.log")
	run, err := runlog.Open(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = run.Close() })

	w := New(cfg, checker, guard.New(svc, boot, nil), svc, run, hist, nil)
	w.SetNow(func() time.Time { return now })

	return &fixture{w: w, svc: svc, hist: hist, logPath: logPath}
}

func (f *fixture) runLog(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(f.logPath)
	require.NoError(t, err)
	return string(b)
}

func (f *fixture) lastRecord(t *testing.T) history.CheckRecord {
	t.Helper()
	records, err := f.hist.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	return records[0]
}

// TestRun_HealthyServiceIsLeftAlone verifies a fresh state file ends the run
// without touching the service.
// TestRun_HealthyServiceIsLeftAlone 验证状态文件新鲜时运行结束且不触碰服务。
func TestRun_HealthyServiceIsLeftAlone(t *testing.T) {
	svc := &fakeController{installed: true, status: guard.StatusRunning}
	f := newFixture(t, svc, &fakeBootLog{}, 30, true)

	outcome, err := f.w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, state.VerdictHealthy, outcome.Result.Verdict)
	assert.Nil(t, outcome.Decision)
	assert.Zero(t, svc.restarts)
	assert.Contains(t, f.runLog(t), "last update 30 seconds ago (< 300), service considered alive")

	rec := f.lastRecord(t)
	assert.Equal(t, "healthy", rec.Verdict)
	assert.False(t, rec.Restarted)
}

// TestRun_StaleRunningServiceIsRestarted verifies the hung-but-running branch.
// TestRun_StaleRunningServiceIsRestarted 验证“挂起但在运行”分支。
func TestRun_StaleRunningServiceIsRestarted(t *testing.T) {
	svc := &fakeController{installed: true, status: guard.StatusRunning}
	f := newFixture(t, svc, &fakeBootLog{}, 400, true)

	outcome, err := f.w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, state.VerdictStale, outcome.Result.Verdict)
	require.NotNil(t, outcome.Decision)
	assert.True(t, outcome.Decision.Restarted)
	assert.Equal(t, 1, svc.restarts)

	log := f.runLog(t)
	assert.Contains(t, log, "last update 400 seconds ago (> 300), service considered hung")
	assert.Contains(t, log, guard.ReasonWasRunning)

	rec := f.lastRecord(t)
	assert.Equal(t, "stale", rec.Verdict)
	assert.True(t, rec.Restarted)
	assert.Equal(t, guard.ReasonWasRunning, rec.Reason)
	assert.Empty(t, rec.Error)
}

// TestRun_StaleStoppedServiceIsLeftAlone verifies an operator stop survives a
// stale state file.
// TestRun_StaleStoppedServiceIsLeftAlone 验证操作员停止的服务即使状态文件过期
// 也不被重启。
func TestRun_StaleStoppedServiceIsLeftAlone(t *testing.T) {
	svc := &fakeController{installed: true, status: guard.StatusStopped}
	f := newFixture(t, svc, &fakeBootLog{failedAtBoot: false}, 400, true)

	outcome, err := f.w.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, outcome.Decision)
	assert.False(t, outcome.Decision.Restarted)
	assert.Zero(t, svc.restarts)
	assert.Contains(t, f.runLog(t), guard.ReasonOperatorStop)
}

// TestRun_MissingStateFileIsIndeterminate verifies a missing state file is not
// an error and causes no restart.
// TestRun_MissingStateFileIsIndeterminate 验证状态文件缺失不算错误且不会触发
// 重启。
func TestRun_MissingStateFileIsIndeterminate(t *testing.T) {
	svc := &fakeController{installed: true, status: guard.StatusRunning}
	f := newFixture(t, svc, &fakeBootLog{}, 0, false)

	outcome, err := f.w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, state.VerdictIndeterminate, outcome.Result.Verdict)
	assert.Nil(t, outcome.Decision)
	assert.Zero(t, svc.restarts)
	assert.Contains(t, f.runLog(t), "state file not found, liveness not checked")

	rec := f.lastRecord(t)
	assert.Equal(t, "indeterminate", rec.Verdict)
}

// TestRun_UninstalledServiceFails verifies the service-installed precondition.
// TestRun_UninstalledServiceFails 验证服务已安装的前置条件。
func TestRun_UninstalledServiceFails(t *testing.T) {
	svc := &fakeController{installed: false}
	f := newFixture(t, svc, &fakeBootLog{}, 30, true)

	_, err := f.w.Run(context.Background())
	assert.ErrorIs(t, err, ErrServiceNotInstalled)
	assert.Zero(t, svc.restarts)

	rec := f.lastRecord(t)
	assert.Contains(t, rec.Error, "not installed")
}

// TestRun_RestartFailureIsRecordedAndPropagated verifies a failed restart
// fails the run but still lands in the history.
// TestRun_RestartFailureIsRecordedAndPropagated 验证重启失败会使运行失败，
// 但仍会记入历史。
func TestRun_RestartFailureIsRecordedAndPropagated(t *testing.T) {
	svc := &fakeController{
		installed:  true,
		status:     guard.StatusRunning,
		restartErr: errors.New("access denied"),
	}
	f := newFixture(t, svc, &fakeBootLog{}, 400, true)

	_, err := f.w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	rec := f.lastRecord(t)
	assert.Equal(t, "stale", rec.Verdict)
	assert.False(t, rec.Restarted)
	assert.Contains(t, rec.Error, "access denied")
}

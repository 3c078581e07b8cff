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

package guard

import (
	"context"
	"testing"

	"pgregory.net/rapid"
)

// For every combination of observed status and boot-failure evidence, a
// restart happens exactly when the service is running or failed at boot, and
// the guard never issues more than one restart.
// 对于观察到的状态与开机失败证据的每种组合，重启恰好发生在服务运行中或开机
// 启动失败时，且守卫绝不发出多于一次的重启。
func TestProperty_RestartIffRunningOrFailedAtBoot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		status := rapid.SampledFrom([]ServiceStatus{
			StatusRunning, StatusStopped, StatusUnknown,
		}).Draw(t, "status")
		failedAtBoot := rapid.Bool().Draw(t, "failedAtBoot")

		svc := &fakeController{status: status}
		events := &fakeBootLog{failedAtBoot: failedAtBoot}

		d, err := New(svc, events, nil).Apply(context.Background())
		if err != nil {
			t.Fatalf("apply: %v", err)
		}

		wantRestart := status == StatusRunning || failedAtBoot
		if d.Restarted != wantRestart {
			t.Fatalf("status=%s failedAtBoot=%v: restarted=%v, want %v",
				status, failedAtBoot, d.Restarted, wantRestart)
		}
		if svc.restarts > 1 {
			t.Fatalf("guard issued %d restarts, want at most 1", svc.restarts)
		}
		if d.Restarted != (svc.restarts == 1) {
			t.Fatalf("decision and controller disagree: %v vs %d restarts",
				d.Restarted, svc.restarts)
		}
	})
}

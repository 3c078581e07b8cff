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

package task

import (
	"encoding/xml"
	"fmt"
	"time"
)

// Task Scheduler definition constants
// 任务计划程序定义常量
const (
	// taskSchemaNS is the Task Scheduler XML namespace.
	// taskSchemaNS 是任务计划程序 XML 命名空间。
	taskSchemaNS = "http://schemas.microsoft.com/windows/2004/02/mit/task"

	// localSystemSID runs the task as LocalSystem.
	// localSystemSID 使任务以 LocalSystem 身份运行。
	localSystemSID = "S-1-5-18"

	// startBoundaryLayout is the schema's local date-time layout.
	// startBoundaryLayout 是该架构的本地日期时间格式。
	startBoundaryLayout = "2006-01-02T15:04:05"
)

// taskDefinition is the Task Scheduler XML document registered via
// "schtasks /Create /XML".
// taskDefinition 是通过 "schtasks /Create /XML" 注册的任务计划程序 XML 文档。
type taskDefinition struct {
	XMLName xml.Name `xml:"Task"`
	Version string   `xml:"version,attr"`
	Xmlns   string   `xml:"xmlns,attr"`

	RegistrationInfo struct {
		Description string `xml:"Description"`
	} `xml:"RegistrationInfo"`

	Triggers struct {
		TimeTrigger timeTrigger `xml:"TimeTrigger"`
	} `xml:"Triggers"`

	Principals struct {
		Principal principal `xml:"Principal"`
	} `xml:"Principals"`

	Settings taskSettings `xml:"Settings"`

	Actions struct {
		Context string     `xml:"Context,attr"`
		Exec    execAction `xml:"Exec"`
	} `xml:"Actions"`
}

// timeTrigger fires once at StartBoundary and then repeats at Interval.
// Leaving the repetition duration out makes it repeat indefinitely.
// timeTrigger 在 StartBoundary 触发一次，然后按 Interval 重复。不设置重复
// 持续时间即表示无限期重复。
type timeTrigger struct {
	Repetition struct {
		Interval          string `xml:"Interval"`
		StopAtDurationEnd bool   `xml:"StopAtDurationEnd"`
	} `xml:"Repetition"`
	StartBoundary string `xml:"StartBoundary"`
	Enabled       bool   `xml:"Enabled"`
}

// principal runs the task under a system account with elevated rights.
// principal 使任务在具有提升权限的系统账户下运行。
type principal struct {
	ID       string `xml:"id,attr"`
	UserID   string `xml:"UserId"`
	RunLevel string `xml:"RunLevel"`
}

// taskSettings keeps the task runnable on battery power.
// taskSettings 保证任务在电池供电时仍可运行。
type taskSettings struct {
	MultipleInstancesPolicy    string `xml:"MultipleInstancesPolicy"`
	DisallowStartIfOnBatteries bool   `xml:"DisallowStartIfOnBatteries"`
	StopIfGoingOnBatteries     bool   `xml:"StopIfGoingOnBatteries"`
	ExecutionTimeLimit         string `xml:"ExecutionTimeLimit"`
	Enabled                    bool   `xml:"Enabled"`
}

// execAction launches the watchdog binary.
// execAction 启动看门狗二进制程序。
type execAction struct {
	Command          string `xml:"Command"`
	Arguments        string `xml:"Arguments"`
	WorkingDirectory string `xml:"WorkingDirectory"`
}

// buildTaskXML renders the scheduled-task definition.
// buildTaskXML 渲染计划任务定义。
func buildTaskXML(opts Options, start time.Time) ([]byte, error) {
	def := taskDefinition{
		Version: "1.2",
		Xmlns:   taskSchemaNS,
	}
	def.RegistrationInfo.Description = fmt.Sprintf(
		"Restarts the %s service when its state file goes stale.", opts.ServiceName)

	def.Triggers.TimeTrigger = timeTrigger{
		StartBoundary: start.Format(startBoundaryLayout),
		Enabled:       true,
	}
	def.Triggers.TimeTrigger.Repetition.Interval = fmt.Sprintf("PT%dM", opts.Interval)
	def.Triggers.TimeTrigger.Repetition.StopAtDurationEnd = false

	def.Principals.Principal = principal{
		ID:       "Author",
		UserID:   localSystemSID,
		RunLevel: "HighestAvailable",
	}

	def.Settings = taskSettings{
		MultipleInstancesPolicy:    "IgnoreNew",
		DisallowStartIfOnBatteries: false,
		StopIfGoingOnBatteries:     false,
		ExecutionTimeLimit:         "PT1H",
		Enabled:                    true,
	}

	def.Actions.Context = "Author"
	def.Actions.Exec = execAction{
		Command:          opts.Executable,
		Arguments:        opts.arguments(),
		WorkingDirectory: opts.installDir(),
	}

	out, err := xml.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("task: marshal task definition: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

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

// Package main is the entry point for the rport watchdog.
// main 包是 rport 看门狗的入口点。
//
// The watchdog is a run-once tool driven by a Windows scheduled task:
// 看门狗是由 Windows 计划任务驱动的单次运行工具：
// - Reads the service's state file and detects a hung service / 读取服务状态文件并检测挂起
// - Restarts the service when the restart policy allows it / 在重启策略允许时重启服务
// - Manages its own scheduled task (register, unregister, status) / 管理自身的计划任务（注册、注销、查询）
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/config"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/guard"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/history"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/logging"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/privilege"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/runlog"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/state"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/task"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/watchdog"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/winevent"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/winsvc"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Command line flags / 命令行标志
var (
	configFile string
	threshold  int
)

// requirePrivilege guards every command; no action runs unelevated. Swapped
// in tests.
// requirePrivilege 守卫每个命令；任何操作都不会在未提升权限时运行。测试中
// 会被替换。
var requirePrivilege = privilege.Require

// rootCmd is the root command for the watchdog CLI. Running it without a
// subcommand performs one health check, which is what the scheduled task
// invokes.
// rootCmd 是看门狗 CLI 的根命令。不带子命令运行时执行一次健康检查，计划任务
// 调用的就是它。
var rootCmd = &cobra.Command{
	Use:   "rport-watchdog",
	Short: "Liveness watchdog for the rport Windows service",
	Long: `rport-watchdog supervises the rport Windows service.
rport-watchdog 监管 rport Windows 服务。

Driven by a recurring scheduled task, it:
由周期性计划任务驱动，它会：
- Read the service's state file and measure its staleness / 读取服务状态文件并测量其过期程度
- Restart the service when it looks hung and policy allows / 在服务疑似挂起且策略允许时重启服务
- Leave intentionally stopped services alone / 不触碰被有意停止的服务`,
	SilenceUsage: true,
	RunE:         runCheck,
}

// checkCmd performs a single health check. Identical to running the root
// command; exists so the scheduled task's command line reads naturally.
// checkCmd 执行一次健康检查。与直接运行根命令相同；它的存在让计划任务的
// 命令行更加直观。
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one liveness check and restart the service if needed / 执行一次存活检查，必要时重启服务",
	RunE:  runCheck,
}

// registerCmd installs the recurring scheduled task.
// registerCmd 安装周期性计划任务。
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the recurring scheduled task / 注册周期性计划任务",
	RunE:  runRegister,
}

// unregisterCmd removes the scheduled task.
// unregisterCmd 移除计划任务。
var unregisterCmd = &cobra.Command{
	Use:   "unregister",
	Short: "Remove the scheduled task / 移除计划任务",
	RunE:  runUnregister,
}

// statusCmd reports the scheduled task state and recent check history.
// statusCmd 报告计划任务状态和最近的检查历史。
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduled task status and recent checks / 显示计划任务状态和最近的检查",
	RunE:  runStatus,
}

// versionCmd shows version information
// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rport-watchdog\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	// Add flags / 添加标志
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		fmt.Sprintf("config file path (default: %s)", config.DefaultConfigPath))
	rootCmd.PersistentFlags().IntVarP(&threshold, "threshold", "t", 0,
		"staleness threshold in seconds, overrides the config file")

	// Add subcommands / 添加子命令
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(unregisterCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and validates the configuration, applying the command line
// threshold override.
// loadConfig 加载并验证配置，应用命令行的阈值覆盖。
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w / 加载配置失败：%w", err, err)
	}

	// Command line beats config file / 命令行优先于配置文件
	if threshold > 0 {
		cfg.Watchdog.Threshold = threshold
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w / 无效配置：%w", err, err)
	}
	return cfg, nil
}

// taskOptions assembles the scheduled-task options from the configuration and
// the running binary's location.
// taskOptions 根据配置和当前二进制程序的位置组装计划任务选项。
func taskOptions(cfg *config.Config) (task.Options, error) {
	exe, err := os.Executable()
	if err != nil {
		return task.Options{}, fmt.Errorf("failed to locate executable: %w / 定位可执行文件失败：%w", err, err)
	}

	return task.Options{
		TaskName:    cfg.Task.Name,
		ServiceName: cfg.Watchdog.ServiceName,
		Interval:    cfg.Task.Interval,
		Threshold:   cfg.Watchdog.Threshold,
		Executable:  exe,
		ConfigPath:  configFile,
		StateFile:   cfg.Watchdog.StateFile,
	}, nil
}

// runCheck performs one complete watchdog run.
// runCheck 执行一次完整的看门狗运行。
func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateThreshold(); err != nil {
		return err
	}
	if err := requirePrivilege(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logging: %w / 初始化日志失败：%w", err, err)
	}
	defer func() { _ = logger.Sync() }()

	// Run log: truncated every run, best effort / 运行日志：每次运行截断，尽力而为
	run := runlog.Discard()
	if cfg.RunLog.Enabled {
		if run, err = runlog.Open(cfg.RunLog.File); err != nil {
			logger.Warn("run log unavailable", zap.Error(err))
			run = runlog.Discard()
		}
	}
	defer func() { _ = run.Close() }()

	var hist *history.Repository
	if cfg.History.Enabled {
		if hist, err = history.Open(cfg.History.Path); err != nil {
			logger.Warn("history store unavailable", zap.Error(err))
		}
	}

	checker, err := state.NewChecker(cfg.Watchdog.Threshold, logger)
	if err != nil {
		return err
	}

	svc := winsvc.New(cfg.Watchdog.ServiceName, logger)
	events := winevent.NewReader(cfg.Watchdog.ServiceName, cfg.Watchdog.BootWindow, logger)
	g := guard.New(svc, events, logger)

	w := watchdog.New(cfg, checker, g, svc, run, hist, logger)
	outcome, err := w.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(outcome.Result.Message())
	if outcome.Decision != nil {
		fmt.Println(outcome.Decision.Reason)
	}
	return nil
}

// runRegister installs the recurring scheduled task.
// runRegister 安装周期性计划任务。
func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The threshold is baked into the task's command line, so it must be
	// valid at registration time.
	// 阈值被固化到任务的命令行中，因此注册时必须有效。
	if err := cfg.ValidateThreshold(); err != nil {
		return err
	}
	if err := requirePrivilege(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logging: %w / 初始化日志失败：%w", err, err)
	}
	defer func() { _ = logger.Sync() }()

	// There is no point scheduling a watchdog for a service that is not
	// there.
	// 为不存在的服务安排看门狗没有意义。
	installed, err := winsvc.New(cfg.Watchdog.ServiceName, logger).Installed(cmd.Context())
	if err != nil {
		return err
	}
	if !installed {
		return fmt.Errorf("%w: %s", watchdog.ErrServiceNotInstalled, cfg.Watchdog.ServiceName)
	}

	opts, err := taskOptions(cfg)
	if err != nil {
		return err
	}

	if err := task.NewSchtasks(opts, nil, logger).Register(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Scheduled task %q registered, running every %d minutes\n", opts.TaskName, opts.Interval)
	return nil
}

// runUnregister removes the scheduled task.
// runUnregister 移除计划任务。
func runUnregister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requirePrivilege(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logging: %w / 初始化日志失败：%w", err, err)
	}
	defer func() { _ = logger.Sync() }()

	opts, err := taskOptions(cfg)
	if err != nil {
		return err
	}

	if err := task.NewSchtasks(opts, nil, logger).Unregister(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Scheduled task %q removed\n", opts.TaskName)
	return nil
}

// runStatus reports the scheduled task state and the most recent checks.
// runStatus 报告计划任务状态和最近的检查。
func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requirePrivilege(); err != nil {
		return err
	}

	opts, err := taskOptions(cfg)
	if err != nil {
		return err
	}

	st, err := task.NewSchtasks(opts, nil, nil).Status(cmd.Context())
	if err != nil {
		return err
	}

	if !st.Registered {
		fmt.Printf("Scheduled task %q is not registered\n", opts.TaskName)
		return nil
	}

	fmt.Printf("Scheduled task: %s\n", opts.TaskName)
	fmt.Printf("  State:        %s\n", st.State)
	switch {
	case st.NeverRan():
		// 0x41303: the task has not run yet, informational only.
		// 0x41303：任务尚未运行过，仅供参考。
		fmt.Printf("  Last Result:  task has not run yet\n")
	case st.NeedsAttention():
		fmt.Printf("  Last Result:  0x%X (needs attention)\n", st.LastResult)
	default:
		fmt.Printf("  Last Result:  0\n")
	}
	if !st.LastRunTime.IsZero() {
		fmt.Printf("  Last Run:     %s\n", st.LastRunTime.Format("2006-01-02 15:04:05"))
	}
	if !st.NextRunTime.IsZero() {
		fmt.Printf("  Next Run:     %s\n", st.NextRunTime.Format("2006-01-02 15:04:05"))
	}

	if !cfg.History.Enabled {
		return nil
	}
	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		// Status stays useful without the history store.
		// 没有历史存储时状态输出仍然可用。
		return nil
	}
	records, err := hist.Recent(cmd.Context(), 10)
	if err != nil || len(records) == 0 {
		return nil
	}

	fmt.Println("\nRecent checks / 最近的检查:")
	for _, rec := range records {
		line := fmt.Sprintf("  %s  %-13s", rec.RanAt.Format("2006-01-02 15:04:05"), rec.Verdict)
		if rec.Restarted {
			line += "  restarted"
		}
		if rec.Error != "" {
			line += "  error: " + rec.Error
		}
		fmt.Println(line)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/penwyp/trimit/client"
	"github.com/penwyp/trimit/collector"
	"github.com/penwyp/trimit/internal/config"
	apperrors "github.com/penwyp/trimit/internal/errors"
	"github.com/penwyp/trimit/internal/logger"
	"github.com/penwyp/trimit/prompt"
	"github.com/penwyp/trimit/ui"
)

// version holds the current version of trimit
// This will be set at build time via ldflags
var version = "dev"

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("trimit version %s", version)
}

// 将关键依赖抽象为接口以便测试时注入 Mock。
// 若在运行时未被替换，则使用默认实现。
var (
	collectorProvider func() collectorInterface          = defaultCollectorProvider
	promptProvider    func(lang string) promptInterface  = defaultPromptProvider
	clientProvider    func(key string) clientInterface   = defaultClientProvider
	credentialFunc    func() (string, error)             = defaultCredentialFunc
	selectFunc        func(string, []string) (int, error) = ui.Select
	confirmFunc       func(string) (bool, error)          = ui.Confirm
	loadingFunc       func(string, func() ([]string, error)) ([]string, error) = ui.RunLoading
	appLogger         *zap.Logger
)

type collectorInterface interface {
	IsRepo(ctx context.Context) bool
	GetConflictState(ctx context.Context) (collector.ConflictState, error)
	Status(ctx context.Context) (*collector.StatusSummary, error)
	StageAll(ctx context.Context) error
	HasStagedChanges(ctx context.Context) bool
	StagedDiff(ctx context.Context) (collector.DiffBundle, error)
	RecentHistory(ctx context.Context, n int) ([]string, error)
	Commit(ctx context.Context, message string) error
}

type promptInterface interface {
	BuildSystemPrompt() string
	BuildUserPrompt(bundle collector.DiffBundle, history []string) string
}

type clientInterface interface {
	GenerateCandidates(ctx context.Context, systemPrompt, userPrompt string) ([]string, error)
}

// ---------------- 默认实现 ------------------

func defaultCollectorProvider() collectorInterface {
	return collector.New(realRunner{debug: flagDebug})
}

func defaultPromptProvider(lang string) promptInterface {
	return prompt.NewBuilder(lang)
}

func defaultClientProvider(key string) clientInterface {
	return client.New("", key, appLogger)
}

func defaultCredentialFunc() (string, error) {
	mgr, err := config.NewManager("")
	if err != nil {
		return "", err
	}
	return config.ResolveAPIKey(mgr)
}

const (
	// subprocessTimeout 单个 git 调用的超时上限。
	subprocessTimeout = 30 * time.Second
	// maxSubprocessOutput 限制子进程输出的读取量（10MB）。
	maxSubprocessOutput = 10 << 20
)

// realRunner 实际执行系统命令；仅在生产模式使用。
// 命令以参数列表启动，从不经过 shell。
type realRunner struct {
	debug bool
}

func (r realRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, subprocessTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if r.debug && appLogger != nil {
		appLogger.Debug("Running command",
			zap.String("command", name),
			zap.Strings("args", args))
	}
	output, err := cmd.CombinedOutput()
	if len(output) > maxSubprocessOutput {
		output = output[:maxSubprocessOutput]
	}
	if r.debug && appLogger != nil {
		appLogger.Debug("Command finished",
			zap.Int("output_length", len(output)),
			zap.Error(err))
	}
	return output, err
}

// -------------------------------------------------

var rootCmd = &cobra.Command{
	Use:   "trimit",
	Short: "AI-powered interactive commit tool",
	Long: `trimit stages your changes, asks an AI for three commit message
candidates based on the staged diff, lets you pick one in an
interactive menu, and commits with the chosen message.

Run it with no arguments inside a git repository. Use 'trimit config'
to store your API key, or set ` + config.EnvAPIKey + `.`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagLang    string
	flagTimeout int
	flagYes     bool
	flagAll     bool
	flagDryRun  bool
	flagDebug   bool
	flagVersion bool
)

func init() {
	rootCmd.Flags().StringVarP(&flagLang, "lang", "l", "en", "commit message language (ISO 639-1)")
	rootCmd.Flags().IntVarP(&flagTimeout, "timeout", "t", 30, "API timeout in seconds, covering retries")
	rootCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip selection and commit with the first candidate")
	rootCmd.Flags().BoolVarP(&flagAll, "all", "a", false, "stage all changes (tracked and untracked) before generating")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print candidates but do not commit")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug output for troubleshooting")
	rootCmd.Flags().BoolVarP(&flagVersion, "version", "v", false, "show version information")

	rootCmd.AddCommand(newConfigCmd())
}

func Execute() error { return rootCmd.Execute() }

func ExecuteContext(ctx context.Context) error { return rootCmd.ExecuteContext(ctx) }

func run(cmd *cobra.Command, args []string) error {
	if flagVersion {
		fmt.Fprintln(cmd.OutOrStdout(), GetVersionString())
		return nil
	}

	var err error
	appLogger, err = logger.New(flagDebug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	ui.ConfigureColorProfile()

	ctx := cmd.Context()
	col := collectorProvider()

	// 仓库与冲突状态检查先于一切重操作
	if !col.IsRepo(ctx) {
		return apperrors.ErrNotARepository
	}
	if state, err := col.GetConflictState(ctx); err != nil {
		return err
	} else if state != collector.ConflictNone {
		return apperrors.New(apperrors.KindConflictInProgress,
			fmt.Sprintf("a %s is in progress", state)).
			WithSuggestion(fmt.Sprintf("finish or abort the %s before committing", state))
	}

	// 凭证解析早于 diff 收集，缺失时不必做多余的工作
	apiKey, err := credentialFunc()
	if err != nil {
		return err
	}

	if err := ensureStaged(ctx, cmd, col); err != nil {
		if errors.Is(err, apperrors.ErrNoChanges) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to commit.")
			return nil
		}
		return err
	}

	bundle, err := col.StagedDiff(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoChanges) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to commit.")
			return nil
		}
		return err
	}

	// 近期历史仅用于提示词的风格参照，取不到也不致命
	history, err := col.RecentHistory(ctx, 5)
	if err != nil {
		appLogger.Debug("failed to collect recent history", zap.Error(err))
		history = nil
	}

	builder := promptProvider(flagLang)
	systemPrompt := builder.BuildSystemPrompt()
	userPrompt := builder.BuildUserPrompt(bundle, history)

	cli := clientProvider(apiKey)
	apiCtx, apiCancel := context.WithTimeout(ctx, time.Duration(flagTimeout)*time.Second)
	defer apiCancel()

	candidates, err := loadingFunc("Generating commit messages…", func() ([]string, error) {
		return cli.GenerateCandidates(apiCtx, systemPrompt, userPrompt)
	})
	if err != nil {
		return err
	}

	if flagDryRun {
		for _, c := range candidates {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	}

	idx := 0
	if !flagYes {
		idx, err = selectFunc("Choose a commit message:", candidates)
		if err != nil {
			if errors.Is(err, ui.ErrCanceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
			}
			return err
		}
	}

	if err := col.Commit(ctx, candidates[idx]); err != nil {
		if errors.Is(err, apperrors.ErrNoChanges) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to commit.")
			return nil
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSuccess("Committed: "+candidates[idx]))
	return nil
}

// ensureStaged 保证进入 diff 阶段前暂存区非空。
// --all 直接全量暂存；否则在有改动但未暂存时请用户确认。
// 完全没有改动时返回 ErrNoChanges。
func ensureStaged(ctx context.Context, cmd *cobra.Command, col collectorInterface) error {
	if flagAll {
		return col.StageAll(ctx)
	}

	if col.HasStagedChanges(ctx) {
		return nil
	}

	status, err := col.Status(ctx)
	if err != nil {
		return err
	}
	if !status.HasAnyChanges() {
		return apperrors.ErrNoChanges
	}

	if flagYes {
		return col.StageAll(ctx)
	}

	total := len(status.Unstaged) + len(status.Untracked)
	ok, err := confirmFunc(fmt.Sprintf("Nothing is staged. Stage all changes (%d files)?", total))
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrNoChanges
	}
	return col.StageAll(ctx)
}

// renderSuccess 渲染提交成功的结果行。
// 失败路径由调用方统一经 FormatError 输出，这里只管成功态。
func renderSuccess(message string) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	return style.Render("✓ " + message)
}

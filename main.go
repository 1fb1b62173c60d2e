package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/penwyp/trimit/cmd"
	apperrors "github.com/penwyp/trimit/internal/errors"
	"github.com/penwyp/trimit/ui"
)

// main 为 CLI 入口。信号触发 context 取消，由各阶段自行收尾后
// 在这里统一换算退出码。
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gotSignal atomic.Int32
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if s, ok := sig.(syscall.Signal); ok {
			gotSignal.Store(int32(s))
		}
		cancel()
	}()

	err := cmd.ExecuteContext(ctx)
	signal.Stop(sigCh)
	if err == nil {
		return
	}

	code := exitCode(err, syscall.Signal(gotSignal.Load()))
	switch code {
	case 124:
		fmt.Fprintln(os.Stderr, "trimit: timed out waiting for the API")
	case 130, 143:
		// 被信号打断，该说的各阶段已经说完了
	default:
		fmt.Fprintf(os.Stderr, "trimit: %s\n", apperrors.FormatError(err))
	}
	os.Exit(code)
}

// exitCode 把运行错误换算为进程退出码。
// 收到过信号时按 128+signal 约定退出，即使错误是被杀掉的
// 子进程（exec 的 "signal: killed"）而非 context.Canceled。
func exitCode(err error, sig syscall.Signal) int {
	switch {
	case errors.Is(err, ui.ErrCanceled):
		return 130
	case sig == syscall.SIGTERM:
		return 143
	case sig == syscall.SIGINT:
		return 130
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, context.DeadlineExceeded):
		return 124
	default:
		return 1
	}
}

package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// selectFallback 是无终端环境下的降级选择：打印编号列表，
// 读取一行 1 基序号。越界或非数字输入一律回落到第一项。
// 该路径不进入 raw mode，也不做任何 ANSI 重绘。
func selectFallback(r io.Reader, w io.Writer, title string, options []string) int {
	_, _ = fmt.Fprintln(w, title)
	for i, opt := range options {
		_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, opt)
	}
	_, _ = fmt.Fprintf(w, "Enter choice [1-%d] (default 1): ", len(options))

	line, err := readLine(r)
	if err != nil && line == "" {
		return 0
	}

	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(options) {
		return 0
	}
	return choice - 1
}

// readLine 逐字节读取一行，不做预读缓冲。
// 同一输入流可能被连续多个提示共用（先确认暂存，再选择候选），
// 预读会吞掉属于下一个提示的行。
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return sb.String(), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			return sb.String(), err
		}
	}
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/penwyp/trimit/internal/config"
	apperrors "github.com/penwyp/trimit/internal/errors"
)

// configManagerProvider 允许测试替换配置管理器
var configManagerProvider = func() (config.Manager, error) {
	return config.NewManager("")
}

// newConfigCmd 创建config命令及其子命令
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage trimit configuration",
		Long:  "Manage the stored API credential and inspect the configuration file.",
	}

	cmd.AddCommand(newConfigSetKeyCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the API key in the config file",
		Long: `Store the API key in the config file. Pass the key as an argument,
or omit it to be prompted without echoing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				var err error
				key, err = promptForKey(cmd)
				if err != nil {
					return err
				}
			}

			key = strings.TrimSpace(key)
			if key == "" {
				return apperrors.New(apperrors.KindInvalidRequest, "API key must not be empty")
			}

			mgr, err := configManagerProvider()
			if err != nil {
				return err
			}
			cfg, err := mgr.Load()
			if err != nil {
				return err
			}
			cfg.APIKey = key
			if err := mgr.Save(cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "API key saved to %s\n", mgr.Path())
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := configManagerProvider()
			if err != nil {
				return err
			}
			cfg, err := mgr.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", mgr.Path())
			if envKey := os.Getenv(config.EnvAPIKey); envKey != "" {
				fmt.Fprintf(out, "API key:     %s (from %s)\n", maskKey(envKey), config.EnvAPIKey)
			} else if cfg.APIKey != "" {
				fmt.Fprintf(out, "API key:     %s\n", maskKey(cfg.APIKey))
			} else {
				fmt.Fprintln(out, "API key:     (not set)")
			}
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := configManagerProvider()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mgr.Path())
			return nil
		},
	}
}

// promptForKey 从终端无回显读取密钥；非终端输入则按行读取。
func promptForKey(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.OutOrStdout(), "Enter API key: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return string(raw), nil
	}

	var key string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &key); err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return key, nil
}

// maskKey 仅保留前4位与后4位，其余以星号代替
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/equityscore/internal/scoringconfig"
)

// configCmd groups scoring config utilities
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "점수 설정(YAML) 관리",
	Long: `점수 설정 파일을 출력, 검증, 해시합니다.
--config 또는 SCORING_CONFIG가 없으면 내장 기본값을 사용합니다.

Example:
  go run ./cmd/quant config print > config/scoring/custom.yaml
  go run ./cmd/quant config validate config/scoring/custom.yaml
  go run ./cmd/quant config hash --config config/scoring/custom.yaml`,
}

var (
	configPrintCmd = &cobra.Command{
		Use:   "print",
		Short: "유효 설정을 YAML로 출력",
		RunE:  runConfigPrint,
	}

	configValidateCmd = &cobra.Command{
		Use:   "validate [path]",
		Short: "설정 파일 검증",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigValidate,
	}

	configHashCmd = &cobra.Command{
		Use:   "hash",
		Short: "설정 해시 출력 (리포트 메타데이터와 동일)",
		RunE:  runConfigHash,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPrintCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configHashCmd)
}

// loadScoring loads --config (or SCORING_CONFIG) without the rest of the app
func loadScoring(path string) (*scoringconfig.Config, error) {
	if path == "" {
		path = configFile
	}
	if path == "" {
		a, err := newApp(appOptions{})
		if err != nil {
			return nil, err
		}
		defer a.close()
		return a.scoring, nil
	}
	cfg, _, err := scoringconfig.Load(path)
	return cfg, err
}

func runConfigPrint(cmd *cobra.Command, args []string) error {
	cfg, err := loadScoring("")
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), cfg)
	}
	data, err := scoringconfig.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	out := cmd.OutOrStdout()
	cfg, err := loadScoring(path)
	if err != nil {
		var verr scoringconfig.ValidationError
		if errors.As(err, &verr) {
			PrintError(out, fmt.Sprintf("%s: %s", verr.Field, verr.Message))
		}
		return err
	}

	for _, w := range scoringconfig.Warn(cfg) {
		PrintWarning(out, fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	PrintSuccess(out, fmt.Sprintf("Config %s (v%s) is valid", cfg.Meta.ConfigID, cfg.Meta.Version))
	return nil
}

func runConfigHash(cmd *cobra.Command, args []string) error {
	cfg, err := loadScoring("")
	if err != nil {
		return err
	}
	hash, err := scoringconfig.Hash(cfg)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]string{
			"config_id": cfg.Meta.ConfigID,
			"hash":      hash,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/internal/s0_data"
)

var importAll bool

// importCmd copies snapshot price history into PostgreSQL
var importCmd = &cobra.Command{
	Use:   "import [SYMBOL...]",
	Short: "스냅샷 가격 이력을 DB로 적재",
	Long: `스냅샷의 일봉을 정규화하여 data.daily_prices에 upsert 합니다.
이후 technical --source db 로 같은 데이터를 DB에서 점수화할 수 있습니다.

Example:
  go run ./cmd/quant import AAPL MSFT
  go run ./cmd/quant import --all`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importAll, "all", false, "import every symbol in DATA_DIR")
}

func runImport(cmd *cobra.Command, args []string) error {
	if importAll == (len(args) > 0) {
		return fmt.Errorf("give symbols or --all, not both or neither")
	}

	a, err := newApp(appOptions{requireDB: true})
	if err != nil {
		return err
	}
	defer a.close()

	symbols := args
	if importAll {
		if symbols, err = a.store.ListSymbols(); err != nil {
			return err
		}
	}

	repo := s0_data.NewPriceRepository(a.db.Pool, a.log)
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	failed := 0
	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		data, _, err := a.store.LoadLatest(sym)
		if err != nil {
			failed++
			PrintError(out, fmt.Sprintf("%s: %v", sym, err))
			continue
		}

		points := contracts.NormalizePrices(data.PriceHistory)
		if err := repo.SaveHistory(ctx, sym, points); err != nil {
			failed++
			PrintError(out, fmt.Sprintf("%s: %v", sym, err))
			continue
		}
		PrintSuccess(out, fmt.Sprintf("%s: %d bars imported", sym, len(points)))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(symbols))
	}
	return nil
}

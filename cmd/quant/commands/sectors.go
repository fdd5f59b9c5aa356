package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// sectorsCmd prints the sector weight table
var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "섹터별 모델 가중치 조회",
	RunE:  runSectors,
}

func init() {
	rootCmd.AddCommand(sectorsCmd)
}

func runSectors(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	val := a.scoring.Valuation
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]interface{}{
			"sectors":     val.SectorWeights,
			"aliases":     val.SectorAliases,
			"config_hash": a.configHash,
		})
	}

	names := make([]string, 0, len(val.SectorWeights))
	for name := range val.SectorWeights {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		w := val.SectorWeights[name]
		rows = append(rows, []string{name, fmt.Sprintf("%d", w.Available()), fmt.Sprintf("%.2f", w.Sum())})
	}
	fmt.Fprintln(out, titleStyle.Render("Sectors · "+a.scoring.Meta.ConfigID))
	PrintTable(out, []string{"SECTOR", "MODELS", "WEIGHT SUM"}, []int{26, 6, 10}, rows)

	if len(val.SectorAliases) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, mutedStyle.Render("Aliases"))
		for _, alias := range sortedKeys(val.SectorAliases) {
			PrintKeyValue(out, alias, val.SectorAliases[alias], 24)
		}
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/provider/openfoodfacts"
)

func newLookupCmd() *cobra.Command {
	var (
		baseURL string
		goal    string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "lookup <barcode>",
		Short: "Look a product up on Open Food Facts and score it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objective := nutrition.Objective(goal)
			if !objective.Valid() {
				return fmt.Errorf("--goal must be one of: lose_weight, build_muscle, maintain")
			}
			client := openfoodfacts.New(openfoodfacts.Options{BaseURL: baseURL})
			p, err := client.LookupBarcode(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			rec := nutrition.Recommend(p, objective)

			out := cmd.OutOrStdout()
			if asJSON {
				b, err := json.MarshalIndent(map[string]any{"product": p, "recommendation": rec}, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal lookup json: %w", err)
				}
				fmt.Fprintln(out, string(b))
				return nil
			}
			fmt.Fprintf(out, "Barcode: %s\n", p.Barcode)
			fmt.Fprintf(out, "Food: %s\n", p.Name)
			if p.Brands != "" {
				fmt.Fprintf(out, "Brand: %s\n", p.Brands)
			}
			fmt.Fprintf(out, "Per 100 g: %.0f kcal, protein %.1fg, carbs %.1fg, fat %.1fg, sugars %.1fg, salt %.2fg\n",
				p.Calories, p.Protein, p.Carbs, p.Fats, p.Sugars, p.Salt)
			if p.NutriScoreGrade != "" {
				fmt.Fprintf(out, "Nutri-Score: %s\n", strings.ToUpper(p.NutriScoreGrade))
			}
			fmt.Fprintf(out, "Score: %d/10 [%s] %s\n", rec.Score, rec.Badge, rec.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "off-url", openfoodfacts.DefaultBaseURL, "Open Food Facts base URL")
	cmd.Flags().StringVar(&goal, "goal", string(nutrition.ObjectiveMaintain), "Objective used for the recommendation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

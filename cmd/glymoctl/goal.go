package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
)

func newEstimateGoalCmd() *cobra.Command {
	var (
		weight, height float64
		age            int
		sex, activity  string
		goal           string
	)
	cmd := &cobra.Command{
		Use:   "estimate-goal",
		Short: "Estimate a daily calorie goal (Mifflin-St Jeor)",
		RunE: func(cmd *cobra.Command, args []string) error {
			factor, err := parseActivity(activity)
			if err != nil {
				return err
			}
			objective := nutrition.Objective(goal)
			if !objective.Valid() {
				return fmt.Errorf("--goal must be one of: lose_weight, build_muscle, maintain")
			}
			in := nutrition.GoalInputs{
				WeightKG: weight, HeightCM: height, Age: age,
				Sex: nutrition.Sex(sex), ActivityFactor: factor, Objective: objective,
			}
			bmr := nutrition.BMR(in.WeightKG, in.HeightCM, in.Age, in.Sex)
			fmt.Fprintf(cmd.OutOrStdout(), "BMR: %.0f kcal\nActivity factor: %g\nDaily goal: %d kcal\n",
				math.Round(bmr), factor, nutrition.EstimateGoal(in))
			return nil
		},
	}
	cmd.Flags().Float64Var(&weight, "weight", 0, "Weight in kg")
	cmd.Flags().Float64Var(&height, "height", 0, "Height in cm")
	cmd.Flags().IntVar(&age, "age", 0, "Age in years")
	cmd.Flags().StringVar(&sex, "sex", "female", "male or female")
	cmd.Flags().StringVar(&activity, "activity", "sedentary", "Activity level name or factor")
	cmd.Flags().StringVar(&goal, "goal", string(nutrition.ObjectiveMaintain), "lose_weight, build_muscle or maintain")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("height")
	_ = cmd.MarkFlagRequired("age")
	return cmd
}

// parseActivity accepts a level name ("moderate") or its factor ("1.55").
func parseActivity(s string) (float64, error) {
	if f, ok := nutrition.ActivityLevels[strings.ToLower(s)]; ok {
		return f, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && nutrition.ValidActivityFactor(f) {
		return f, nil
	}
	names := make([]string, 0, len(nutrition.ActivityLevels))
	for name := range nutrition.ActivityLevels {
		names = append(names, name)
	}
	sort.Strings(names)
	return 0, fmt.Errorf("--activity must be one of: %s", strings.Join(names, ", "))
}

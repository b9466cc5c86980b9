package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var apiURL string

	rootCmd := &cobra.Command{
		Use:           "progressctl",
		Short:         "Operator CLI for the progress tracker API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "Base URL of the API server")

	rootCmd.AddCommand(newSessionsCommand(&apiURL))
	rootCmd.AddCommand(newAuditCommand(&apiURL))
	rootCmd.AddCommand(newReportCommand(&apiURL))
	rootCmd.AddCommand(newChainCommand(&apiURL))
	rootCmd.AddCommand(newCompareCommand(&apiURL))

	return rootCmd
}

func newSessionsCommand(apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List known session ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Sessions []string `json:"sessions"`
			}
			if err := newAPIClient(*apiURL).getJSON(cmd.Context(), "/v1/sessions", &resp); err != nil {
				return err
			}
			for _, id := range resp.Sessions {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newAuditCommand(apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "audit [session_id]",
		Short: "Audit one session, or every session when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(*apiURL)

			issuesBySession := map[string][]string{}
			if len(args) == 1 {
				var resp struct {
					SessionID string   `json:"session_id"`
					Issues    []string `json:"issues"`
				}
				if err := client.getJSON(cmd.Context(), "/v1/sessions/"+args[0]+"/audit", &resp); err != nil {
					return err
				}
				issuesBySession[resp.SessionID] = resp.Issues
			} else {
				var resp struct {
					Sessions map[string][]string `json:"sessions"`
				}
				if err := client.getJSON(cmd.Context(), "/v1/audit", &resp); err != nil {
					return err
				}
				issuesBySession = resp.Sessions
			}

			ids := make([]string, 0, len(issuesBySession))
			for id := range issuesBySession {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, []string{id, strings.Join(issuesBySession[id], "; ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"SESSION", "ISSUES"}, rows))
			return nil
		},
	}
}

func newReportCommand(apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report <session_id>",
		Short: "Show the session report: summary, tag frequency and plans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				SessionID    string   `json:"session_id"`
				SummaryLines []string `json:"summary_lines"`
				TagFrequency []struct {
					Tag   string `json:"tag"`
					Count int    `json:"count"`
				} `json:"tag_frequency"`
				Plans []struct {
					Status     string `json:"status"`
					PlanText   string `json:"plan_text"`
					RecordedAt string `json:"recorded_at"`
				} `json:"plans"`
			}
			if err := newAPIClient(*apiURL).getJSON(cmd.Context(), "/v1/sessions/"+args[0]+"/report", &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s\n\n", resp.SessionID)
			if len(resp.SummaryLines) > 0 {
				fmt.Fprintln(out, "Summary:")
				for _, line := range resp.SummaryLines {
					fmt.Fprintf(out, "  %s\n", line)
				}
				fmt.Fprintln(out)
			}
			if len(resp.TagFrequency) > 0 {
				rows := make([][]string, 0, len(resp.TagFrequency))
				for _, tc := range resp.TagFrequency {
					rows = append(rows, []string{tc.Tag, fmt.Sprintf("%d", tc.Count)})
				}
				fmt.Fprintln(out, renderTable([]string{"TAG", "COUNT"}, rows))
			}
			for i, plan := range resp.Plans {
				fmt.Fprintf(out, "\nPlan %d (%s, %s):\n%s\n", i+1, plan.Status, plan.RecordedAt, plan.PlanText)
			}
			return nil
		},
	}
}

func newChainCommand(apiURL *string) *cobra.Command {
	var fitnessLevel, goal, expert string
	var async bool

	cmd := &cobra.Command{
		Use:   "chain <session_id>",
		Short: "Run the tag-and-plan chain for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(*apiURL)

			if async {
				if err := client.postJSON(cmd.Context(), "/v1/sessions/"+args[0]+"/chain/async", nil, nil); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "enqueued")
				return nil
			}

			body := map[string]string{}
			if fitnessLevel != "" {
				body["fitness_level"] = fitnessLevel
			}
			if goal != "" {
				body["goal"] = goal
			}
			if expert != "" {
				body["expert"] = expert
			}

			var resp struct {
				Tags       []string `json:"tags"`
				PlanText   string   `json:"plan_text"`
				PlanStatus string   `json:"plan_status"`
				Degraded   bool     `json:"degraded"`
			}
			if err := client.postJSON(cmd.Context(), "/v1/sessions/"+args[0]+"/chain", body, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tags: %s\n", strings.Join(resp.Tags, ", "))
			if resp.Degraded {
				fmt.Fprintln(out, "Warning: one or more classifier calls substituted a fallback")
			}
			fmt.Fprintf(out, "Plan (%s):\n%s\n", resp.PlanStatus, resp.PlanText)
			return nil
		},
	}

	cmd.Flags().StringVar(&fitnessLevel, "fitness-level", "", "Fitness level override")
	cmd.Flags().StringVar(&goal, "goal", "", "Goal override")
	cmd.Flags().StringVar(&expert, "expert", "", "Expert profile override")
	cmd.Flags().BoolVar(&async, "async", false, "Enqueue the chain instead of running it synchronously")

	return cmd
}

func newCompareCommand(apiURL *string) *cobra.Command {
	var generatePlan bool
	var fitnessLevel, goal, expert string

	cmd := &cobra.Command{
		Use:   "compare <session_id> <before_file> <after_file>",
		Short: "Compare two stored images and show gained and lost shape tags",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"before":        args[1],
				"after":         args[2],
				"generate_plan": generatePlan,
			}
			if fitnessLevel != "" {
				body["fitness_level"] = fitnessLevel
			}
			if goal != "" {
				body["goal"] = goal
			}
			if expert != "" {
				body["expert"] = expert
			}

			var resp struct {
				BeforeTags []string `json:"before_tags"`
				AfterTags  []string `json:"after_tags"`
				Gained     []string `json:"gained"`
				Lost       []string `json:"lost"`
				Degraded   bool     `json:"degraded"`
				PlanText   string   `json:"plan_text"`
				PlanStatus string   `json:"plan_status"`
			}
			if err := newAPIClient(*apiURL).postJSON(cmd.Context(), "/v1/sessions/"+args[0]+"/compare", body, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Before", strings.Join(resp.BeforeTags, ", ")},
				{"After", strings.Join(resp.AfterTags, ", ")},
				{"Gained", strings.Join(resp.Gained, ", ")},
				{"Lost", strings.Join(resp.Lost, ", ")},
			}
			fmt.Fprintln(out, renderTable([]string{"", "TAGS"}, rows))
			if resp.Degraded {
				fmt.Fprintln(out, "Warning: one or more tagger calls substituted a fallback")
			}
			if resp.PlanText != "" {
				fmt.Fprintf(out, "\nUpdated plan (%s):\n%s\n", resp.PlanStatus, resp.PlanText)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&generatePlan, "plan", false, "Generate an updated plan from the after-image tags")
	cmd.Flags().StringVar(&fitnessLevel, "fitness-level", "", "Fitness level for the updated plan")
	cmd.Flags().StringVar(&goal, "goal", "", "Goal for the updated plan")
	cmd.Flags().StringVar(&expert, "expert", "", "Expert profile for the updated plan")

	return cmd
}

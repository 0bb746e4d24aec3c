// File: cmd/skills.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/webpilot-ai/webpilot/internal/observability"
	"github.com/webpilot-ai/webpilot/internal/skills"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Manage the skill playbook library.",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available skills.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := skills.NewStore(appConfig.Skills.Dir, observability.GetLogger())
		names, err := s.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			cmd.Println("(no skills found)")
			return nil
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one skill playbook.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := skills.NewStore(appConfig.Skills.Dir, observability.GetLogger())
		body, err := s.Read(args[0])
		if err != nil {
			return err
		}
		cmd.Println(body)
		return nil
	},
}

var skillsSyncCmd = &cobra.Command{
	Use:   "sync <repo-url>",
	Short: "Clone or update the skill library from a git repository.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := skills.NewStore(appConfig.Skills.Dir, observability.GetLogger())
		if err := s.SyncFromGit(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Println("Skills synced to", s.Dir())
		return nil
	},
}

func init() {
	skillsCmd.AddCommand(skillsListCmd, skillsShowCmd, skillsSyncCmd)
	rootCmd.AddCommand(skillsCmd)
}

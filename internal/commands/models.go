package commands

import (
	"fmt"
	"strconv"

	"llmdesk/internal/models"

	"github.com/spf13/cobra"
)

var ModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage cloud LLM models on a running server",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured cloud LLM models",
	RunE:  runModelsList,
}

var modelsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsGet,
}

var modelsEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModelsToggle(cmd, args[0], true)
	},
}

var modelsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModelsToggle(cmd, args[0], false)
	},
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsDelete,
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid model id %q", raw)
	}
	return id, nil
}

func runModelsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	result, err := c.GetCloudLLMModels(cmd.Context(), page, pageSize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Total == 0 {
		fmt.Fprintln(out, "📋 No cloud models configured")
		return nil
	}

	fmt.Fprintf(out, "📋 Cloud models (page %d/%d, %d total):\n\n", result.Page, result.TotalPages, result.Total)
	for _, m := range result.Items {
		printModel(cmd, &m)
	}
	return nil
}

func runModelsGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}

	m, err := c.GetCloudLLMModelByID(cmd.Context(), id)
	if err != nil {
		return err
	}
	printModel(cmd, m)
	return nil
}

func runModelsToggle(cmd *cobra.Command, raw string, enabled bool) error {
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}

	if err := c.ToggleCloudLLMModelEnabled(cmd.Context(), id, enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Model %d %s\n", id, state)
	return nil
}

func runModelsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}

	if err := c.DeleteCloudLLMModel(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Model %d deleted\n", id)
	return nil
}

func printModel(cmd *cobra.Command, m *models.CloudLLMModel) {
	out := cmd.OutOrStdout()
	status := "🟢 Enabled"
	if !m.Enabled {
		status = "🔴 Disabled"
	}
	fmt.Fprintf(out, "%d. %s %s\n", m.ID, m.Name, status)
	fmt.Fprintf(out, "   Provider: %s\n", m.Provider)
	fmt.Fprintf(out, "   Model: %s\n", m.ModelName)
	if m.BaseURL != "" {
		fmt.Fprintf(out, "   Base URL: %s\n", m.BaseURL)
	}
	if m.APIKey != "" {
		fmt.Fprintf(out, "   API Key: %s\n", m.APIKey)
	}
	fmt.Fprintln(out)
}

func init() {
	modelsListCmd.Flags().Int("page", 1, "Page number")
	modelsListCmd.Flags().Int("page-size", 0, "Items per page (0 uses the server default)")

	ModelsCmd.AddCommand(modelsListCmd)
	ModelsCmd.AddCommand(modelsGetCmd)
	ModelsCmd.AddCommand(modelsEnableCmd)
	ModelsCmd.AddCommand(modelsDisableCmd)
	ModelsCmd.AddCommand(modelsDeleteCmd)
}

package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rpupo63/collage-backend/config"
)

var (
	envFile string
	cfg     map[string]string
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "collagectl",
	Short: "Operator tool for the collage posts backend",
	Long: `collagectl mints admin tokens and inspects the posts stored in the
configured backend (Cloudinary, S3 or memory).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
		cfg = config.New()
		config.ConfigureLogging(cfg)
		return config.ResolveSecrets(cmd.Context(), cfg, "ADMIN_JWT_SECRET", "CLD_API_SECRET")
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "collagectl %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(postsCmd)
	rootCmd.AddCommand(versionCmd)
}

func SetVersion(v string) {
	version = v
}

func Execute() error {
	return rootCmd.Execute()
}

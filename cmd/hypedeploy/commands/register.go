package commands

import (
	"hypedeploy/cmd/hypedeploy/config"
	"hypedeploy/internal/database"
	"hypedeploy/internal/journal"
	"hypedeploy/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	configuration     *config.Configuration
	dbInstance        *gorm.DB
	journalRepository *journal.Repository

	configPath     string
	sshKeyPathFlag string
	verbose        bool
)

func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "deploy.yaml", "Path to the deploy configuration file")
	rootCmd.PersistentFlags().StringVar(&sshKeyPathFlag, "ssh-key-path", "", "Path to SSH private key file (overrides ssh_config IdentityFile)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output")

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return setup()
	}

	rootCmd.AddCommand(ProvisionCmd)
	rootCmd.AddCommand(ReleaseCmd)
	rootCmd.AddCommand(HistoryCmd)
}

func setup() error {
	if verbose {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := config.Load(configPath)

	if err != nil {
		return err
	}

	if sshKeyPathFlag != "" {
		cfg.SSHKeyPath = sshKeyPathFlag
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	configuration = cfg

	db, err := database.InitDB(cfg.JournalPath)

	if err != nil {
		// the journal is informational, deployments go ahead without it
		logger.Warn("Failed to initialize journal at %s: %v", cfg.JournalPath, err)
		return nil
	}

	dbInstance = db
	journalRepository = journal.NewRepository(db)

	return nil
}

// Close releases the journal database.
func Close() {
	if dbInstance == nil {
		return
	}

	if err := database.CloseDB(dbInstance); err != nil {
		logger.Warn("Failed to close journal: %v", err)
	}

	dbInstance = nil
	journalRepository = nil
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/lead-scorer/internal/importer"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Manage uploaded leads",
}

var leadsImportCmd = &cobra.Command{
	Use:   "import FILE.csv",
	Short: "Import leads from a CSV file with columns name, role, company, industry, location, linkedin_bio",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		importLeads(args[0])
	},
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded leads",
	Run: func(_ *cobra.Command, _ []string) {
		listLeads()
	},
}

func init() {
	rootCmd.AddCommand(leadsCmd)
	leadsCmd.AddCommand(leadsImportCmd, leadsListCmd)
}

func importLeads(path string) {
	ctx := context.Background()
	log, config := bootstrap()

	leads, err := importer.ReadFile(path)
	if err != nil {
		log.Fatal("reading leads", zap.String("file", path), zap.Error(err))
	}
	if len(leads) == 0 {
		log.Info("exiting", zap.String("reason", "no leads found in file"), zap.String("file", path))
		return
	}

	store, err := openStore(ctx, config.Storage, log)
	if err != nil {
		log.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close(ctx)

	if err := store.CreateLeads(ctx, leads); err != nil {
		log.Fatal("saving leads", zap.Error(err))
	}

	log.Info("leads imported", zap.String("file", path), zap.Int("count", len(leads)))
}

func listLeads() {
	ctx := context.Background()
	log, config := bootstrap()

	store, err := openStore(ctx, config.Storage, log)
	if err != nil {
		log.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close(ctx)

	leads, err := store.ListLeads(ctx)
	if err != nil {
		log.Fatal("listing leads", zap.Error(err))
	}
	if err := printJSON(leads); err != nil {
		log.Fatal("printing leads", zap.Error(err))
	}
}

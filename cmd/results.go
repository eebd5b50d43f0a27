package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Print the stored results of an offer",
	Run: func(cmd *cobra.Command, _ []string) {
		results(cmd)
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.Flags().String("offer-id", "", "offer whose results are printed")
	resultsCmd.MarkFlagRequired("offer-id")
}

func results(cmd *cobra.Command) {
	ctx := context.Background()
	log, config := bootstrap()
	offerID, _ := cmd.Flags().GetString("offer-id")

	store, err := openStore(ctx, config.Storage, log)
	if err != nil {
		log.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close(ctx)

	// Reading results never calls a provider, so AI stays off here.
	config.AI.Enabled = false
	service, err := newService(ctx, config, store, log)
	if err != nil {
		log.Fatal("preparing scoring", zap.Error(err))
	}

	rows, err := service.Results(ctx, offerID)
	if err != nil {
		log.Fatal("getting results", zap.Error(err))
	}
	if err := printJSON(rows); err != nil {
		log.Fatal("printing results", zap.Error(err))
	}
}

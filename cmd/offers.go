package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/lead-scorer/internal/logger"
	"github.com/spigell/lead-scorer/internal/model"
)

var offerCmd = &cobra.Command{
	Use:   "offer",
	Short: "Manage offers leads are scored against",
}

var offerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an offer",
	Run: func(cmd *cobra.Command, _ []string) {
		addOffer(cmd)
	},
}

var offerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List offers",
	Run: func(_ *cobra.Command, _ []string) {
		listOffers()
	},
}

func init() {
	rootCmd.AddCommand(offerCmd)
	offerCmd.AddCommand(offerAddCmd, offerListCmd)

	offerAddCmd.Flags().StringP("name", "n", "", "offer name")
	offerAddCmd.Flags().StringSlice("value-prop", nil, "value proposition (repeatable)")
	offerAddCmd.Flags().StringSlice("use-case", nil, "ideal use case / target industry (repeatable)")
	offerAddCmd.MarkFlagRequired("name")
}

func addOffer(cmd *cobra.Command) {
	ctx := context.Background()
	log, config := bootstrap()

	name, _ := cmd.Flags().GetString("name")
	valueProps, _ := cmd.Flags().GetStringSlice("value-prop")
	useCases, _ := cmd.Flags().GetStringSlice("use-case")

	offer := &model.Offer{
		Name:          strings.TrimSpace(name),
		ValueProps:    trimAll(valueProps),
		IdealUseCases: trimAll(useCases),
	}
	if offer.Name == "" {
		log.Fatal("offer name must not be empty")
	}

	store, err := openStore(ctx, config.Storage, log)
	if err != nil {
		log.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close(ctx)

	if err := store.CreateOffer(ctx, offer); err != nil {
		log.Fatal("creating offer", zap.Error(err))
	}

	log.Info("offer created", zap.String(logger.FieldOfferID, offer.ID), zap.String("name", offer.Name))
	if err := printJSON(offer); err != nil {
		log.Fatal("printing offer", zap.Error(err))
	}
}

func listOffers() {
	ctx := context.Background()
	log, config := bootstrap()

	store, err := openStore(ctx, config.Storage, log)
	if err != nil {
		log.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close(ctx)

	offers, err := store.ListOffers(ctx)
	if err != nil {
		log.Fatal("listing offers", zap.Error(err))
	}
	if err := printJSON(offers); err != nil {
		log.Fatal("printing offers", zap.Error(err))
	}
}

func trimAll(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}

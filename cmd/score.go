package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/lead-scorer/internal/logger"
	"github.com/spigell/lead-scorer/internal/metrics"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score every uploaded lead against an offer, replacing its previous results",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("offer-id", "", "offer to score leads against")
	scoreCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before replacing results")
	scoreCmd.MarkFlagRequired("offer-id")
}

func score(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, config := bootstrap()
	offerID, _ := cmd.Flags().GetString("offer-id")

	log.Info("starting the lead-scorer", zap.String("version", version), zap.String(logger.FieldOfferID, offerID))

	store, err := openStore(ctx, config.Storage, log)
	if err != nil {
		log.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close(context.Background())

	offer, err := store.GetOffer(ctx, offerID)
	if err != nil {
		log.Fatal("getting the offer", zap.Error(err))
	}

	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); !autoApprove {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Replace all results of offer %q?", offer.Name),
			Items: []string{PromptYes, PromptNo},
		}
		_, action, err := prompt.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			log.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	service, err := newService(ctx, config, store, log)
	if err != nil {
		log.Fatal("preparing scoring", zap.Error(err))
	}

	rows, err := service.Run(ctx, offer.ID)
	pushMetrics(config.Metrics, log)
	if err != nil {
		log.Fatal("scoring failed", zap.Error(err))
	}

	if err := printJSON(rows); err != nil {
		log.Fatal("printing results", zap.Error(err))
	}
}

func pushMetrics(cfg *MetricsConfig, log *zap.Logger) {
	if cfg == nil || cfg.PushgatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metrics.Push(ctx, cfg.PushgatewayURL, cfg.Job); err != nil {
		log.Warn("pushing metrics", zap.Error(err))
		return
	}
	log.Debug("metrics pushed", zap.String("url", cfg.PushgatewayURL))
}

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/listingpress/listingpress/internal/config"
	"github.com/listingpress/listingpress/internal/domain"
)

var generateCmd = &cobra.Command{
	Use:   "generate [draft-id...]",
	Short: "Generate brochures for queued drafts",
	Long: `Run the brochure generation pipeline for one or more queued drafts.
With --listing a fresh draft is created for the listing first and then
generated immediately.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("listing", "", "Create a new draft for this listing ID and generate it")
	generateCmd.Flags().String("brand", "", "Brand ID for the new draft (defaults to the tenant default)")
	generateCmd.Flags().Bool("quiet", false, "Suppress the progress bar")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	listingID := mustGetString(cmd, "listing")
	brandID := mustGetString(cmd, "brand")
	quiet := mustGetBool(cmd, "quiet")

	if listingID == "" && len(args) == 0 {
		return errors.New("provide at least one draft ID or --listing")
	}

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.CRM.DSN == "" {
		return errors.New("CRM_DATABASE_DSN environment variable is required")
	}

	logger := newLogger()
	ctx := context.Background()

	st, err := buildStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	draftIDs := args
	if listingID != "" {
		draft := &domain.Draft{
			ID:        uuid.New().String(),
			ListingID: listingID,
			BrandID:   brandID,
			Status:    domain.DraftQueued,
		}
		if err := st.drafts.CreateDraft(ctx, draft); err != nil {
			return fmt.Errorf("creating draft: %w", err)
		}
		fmt.Printf("Created draft %s for listing %s\n", draft.ID, listingID)
		draftIDs = append(draftIDs, draft.ID)
	}

	var bar *progressbar.ProgressBar
	if !quiet && len(draftIDs) > 1 {
		bar = progressbar.NewOptions(len(draftIDs),
			progressbar.OptionSetDescription("Generating brochures"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	var failed int
	for _, id := range draftIDs {
		if err := st.pipe.Run(ctx, id); err != nil {
			failed++
			fmt.Printf("draft %s: %v\n", id, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		fmt.Println()
	}

	for _, id := range draftIDs {
		draft, err := st.drafts.GetDraft(ctx, id)
		if err != nil {
			continue
		}
		switch draft.Status {
		case domain.DraftComplete:
			fmt.Printf("draft %s: complete (%d pages, score %.1f) -> %s\n",
				draft.ID, draft.Artifact.PageCount, draft.QualityScore, draft.Artifact.Locator)
		case domain.DraftFailed:
			fmt.Printf("draft %s: failed: %s\n", draft.ID, draft.ErrorMessage)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d drafts failed", failed, len(draftIDs))
	}
	return nil
}

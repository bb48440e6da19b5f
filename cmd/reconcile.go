package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/services"
)

func reconcileCmd() *cobra.Command {
	var boardID string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair ordering arrays and settle stale card moves once",
		Long: `reconcile resolves card moves that stopped part way and rebuilds
column and card order arrays from the stored documents. With --board only
that board is rebuilt. The changed boards are printed as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := loadConfig(cmd)
			repos, closeStore, err := openStore(cmd.Context(), conf)
			if err != nil {
				return err
			}
			defer closeStore(cmd.Context())
			r := &services.Reconciler{Repos: repos}

			var reports []services.ReconcileReport
			if boardID != "" {
				id, err := primitive.ObjectIDFromHex(boardID)
				if err != nil {
					return fmt.Errorf("invalid --board %q: %w", boardID, err)
				}
				report, err := r.ReconcileBoard(cmd.Context(), id)
				if err != nil {
					return err
				}
				reports = append(reports, *report)
			} else {
				if _, err := r.ResolveMoves(cmd.Context(), time.Now().Add(-conf.ReconcileGrace)); err != nil {
					return err
				}
				if reports, err = r.ReconcileAll(cmd.Context()); err != nil {
					return err
				}
			}
			if reports == nil {
				reports = []services.ReconcileReport{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}
	cmd.Flags().StringVar(&boardID, "board", "", "Only rebuild this board")
	return cmd
}

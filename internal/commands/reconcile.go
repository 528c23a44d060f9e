package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/duynhne/peek-service/internal/di"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Replay dead-lettered audit records into the audit log",
	Long: `reconcile reads the audit dead-letter journal (AUDIT_DEAD_LETTER_PATH)
and appends every record to the audit log. Appends are idempotent by record
id. Records that still fail stay in the journal for the next run. It is safe
to run while serve is appending; only one reconcile runs at a time.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		audit, cleanup, err := di.InitAuditLogger(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := audit.Reconcile(cmd.Context())
		log.Info().Int("replayed", n).Str("journal", cfg.Audit.DeadLetterPath).Msg("Audit reconcile finished")
		return err
	},
}

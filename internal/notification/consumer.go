package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/shiftwise/shiftwise-backend/config"
	"github.com/shiftwise/shiftwise-backend/internal/report"
	"github.com/shiftwise/shiftwise-backend/utils"
)

// StartKafkaConsumer runs the issue-updates consumer loop in the background.
// Each event becomes one dispatch; dispatch errors are logged and the loop
// moves on, so a bad event can never wedge the pipeline or surface back to
// the mutation that produced it.
func StartKafkaConsumer(svc Service, cfg *config.Config) {
	reader := utils.NewIssueReader(cfg)

	go func() {
		defer reader.Close()
		log.Printf("🔄 Notification consumer started (topic=%s)", cfg.KafkaIssueTopic)

		for {
			m, err := reader.ReadMessage(context.Background())
			if err != nil {
				log.Printf("❌ Kafka read error, stopping consumer: %v", err)
				return
			}

			var evt report.UpdateEvent
			if err := json.Unmarshal(m.Value, &evt); err != nil {
				log.Printf("⚠️  Skipping malformed issue event: %v", err)
				continue
			}

			result, err := svc.Dispatch(context.Background(), evt.IssueID, evt.ReportID, evt.ChangeType, evt.Title, evt.Body)
			if err != nil {
				// Stale events referencing deleted or re-indexed issues are
				// expected noise; anything else is worth a louder line.
				if errors.Is(err, report.ErrReportNotFound) || errors.Is(err, report.ErrIssueNotFound) {
					log.Printf("⚠️  Dispatch skipped for issue %s: %v", evt.IssueID, err)
				} else {
					log.Printf("❌ Dispatch failed for issue %s: %v", evt.IssueID, err)
				}
				continue
			}

			log.Printf("✅ Event dispatched for issue %s: %d notified, %d failed",
				evt.IssueID, result.Notified, result.Failed)
		}
	}()
}

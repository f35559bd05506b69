package cron

import (
	"context"

	"github.com/deenverse/deenverse/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func StartMaintenanceCronJobs(notificationService *services.NotificationService, connectionService *services.ConnectionService) {
	c := cron.New()

	// Drop notifications past their retention window
	c.AddFunc("@hourly", func() {
		err := notificationService.CleanupExpired(context.Background())
		if err != nil {
			logrus.WithError(err).Error("CleanupExpired failed")
		}
	})

	// Recompute connection counters from the ledger
	c.AddFunc("0 3 * * *", func() {
		err := connectionService.ReconcileConnectionCounts(context.Background())
		if err != nil {
			logrus.WithError(err).Error("ReconcileConnectionCounts failed")
		}
	})

	c.Start()
}

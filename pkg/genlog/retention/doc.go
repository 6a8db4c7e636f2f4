// Package retention prunes the generation log by age and by record count,
// optionally archiving pruned entries as JSON, and runs pruning on a cron
// schedule.
//
// Example usage:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays: 90,
//	    PruneSchedule: "0 3 * * *",
//	})
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
package retention

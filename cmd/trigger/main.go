// Command trigger starts one parent clip run, or schedules recurring runs
// with -cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"

	"github.com/mstreet/couponclip/internal/clip"
	"github.com/mstreet/couponclip/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
	cron := fs.String("cron", "", "Cron expression for recurring runs (e.g. \"0 6 * * *\"); when empty, runs once and waits for the result")
	workflowID := fs.String("id", clip.ParentWorkflowID, "Workflow ID for the parent run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    sdklog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		return fmt.Errorf("dial temporal at %s: %w", cfg.TemporalHostPort, err)
	}
	defer c.Close()

	ctx := context.Background()
	opts := client.StartWorkflowOptions{
		ID:           *workflowID,
		TaskQueue:    clip.TaskQueue,
		CronSchedule: *cron,
	}

	we, err := c.ExecuteWorkflow(ctx, opts, clip.ClipCouponsWorkflow)
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}

	if *cron != "" {
		slog.Info("recurring clip runs scheduled",
			"workflow_id", we.GetID(),
			"cron", *cron,
		)
		return nil
	}

	slog.Info("parent run started", "workflow_id", we.GetID(), "run_id", we.GetRunID())

	var result string
	if err := we.Get(ctx, &result); err != nil {
		return fmt.Errorf("parent run failed: %w", err)
	}

	fmt.Println(result)
	return nil
}

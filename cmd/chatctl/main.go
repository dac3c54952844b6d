// Command chatctl runs maintenance tasks against the support chat database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"SupportChat/pkg/config"
	"SupportChat/pkg/database"
	"SupportChat/pkg/events"
	svc "SupportChat/pkg/services"
)

const usage = `usage: chatctl <command> [flags]

commands:
  create-operator -email -name -password   create a dashboard operator
  refresh-views                            refresh the dashboard views once
  analytics-worker                         record analytics events from RabbitMQ
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "create-operator":
		err = createOperator(os.Args[2:])
	case "refresh-views":
		err = refreshViews(os.Args[2:])
	case "analytics-worker":
		err = analyticsWorker(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("[chatctl] %s: %v", os.Args[1], err)
	}
}

func openDB() (*gorm.DB, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	db, err := database.Open(config.DatabaseDriver, config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func createOperator(args []string) error {
	fs := flag.NewFlagSet("create-operator", flag.ExitOnError)
	email := fs.String("email", "", "operator email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", fmt.Sprintf("password (min %d chars, at least one letter and one number)", svc.MinPasswordLength))
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		fs.Usage()
		return errors.New("email and password are required")
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	op, err := svc.CreateOperator(context.Background(), db, *email, *name, *password)
	if err != nil {
		return err
	}
	log.Printf("[chatctl] operator %d created for %s", op.ID, op.Email)
	return nil
}

func refreshViews(args []string) error {
	fs := flag.NewFlagSet("refresh-views", flag.ExitOnError)
	timeout := fs.Duration("timeout", 2*time.Minute, "refresh timeout")
	_ = fs.Parse(args)

	db, err := openDB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	start := time.Now()
	if err := database.RefreshViews(ctx, db); err != nil {
		return err
	}
	log.Printf("[chatctl] views refreshed in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

func analyticsWorker(args []string) error {
	fs := flag.NewFlagSet("analytics-worker", flag.ExitOnError)
	url := fs.String("amqp", "", "RabbitMQ URL (defaults to ANALYTICS_AMQP_URL)")
	_ = fs.Parse(args)

	db, err := openDB()
	if err != nil {
		return err
	}
	if *url == "" {
		*url = config.AnalyticsAMQPURL
	}
	if *url == "" {
		return errors.New("ANALYTICS_AMQP_URL is not set")
	}

	receiver, err := events.NewRabbitMQReceiver(*url)
	if err != nil {
		return err
	}
	defer receiver.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("[chatctl] analytics worker consuming %s", events.AnalyticsQueue)
	events.NewRecorder(db).Run(ctx, receiver)
	log.Println("[chatctl] analytics worker stopped")
	return nil
}

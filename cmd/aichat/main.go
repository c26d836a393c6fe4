package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/aschepis/aichat/chat"
	"github.com/aschepis/aichat/config"
	aichatlogger "github.com/aschepis/aichat/logger"
)

func main() {
	var (
		configPath = flag.String("config", "aichat.yaml", "Path to configuration file")
		model      = flag.String("model", "", "Model override")
		schemaDesc = flag.String("schema", "", "Natural-language description of a structured-output schema")
		background = flag.Bool("background", false, "Use background mode and poll for the result")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stdout/stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		fmt.Fprintf(os.Stderr, "Error: --logfile and --pretty are mutually exclusive\n")
		os.Exit(1)
	}

	// Load .env if present; real credentials usually live there during
	// development.
	_ = godotenv.Load()

	logger, err := aichatlogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *model != "" {
		cfg.Model = *model
	}

	session, err := chat.New(chat.WithConfig(cfg), chat.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create chat session: %v\n", err)
		os.Exit(1)
	}
	session.Background = *background

	ctx := context.Background()

	if *schemaDesc != "" {
		generated, err := session.GenerateSchema(ctx, *schemaDesc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Schema generation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(generated)
	}

	prompt := "What is 2 + 2?"
	if flag.NArg() > 0 {
		prompt = flag.Arg(0)
	}

	if _, err := session.User(prompt); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to add message: %v\n", err)
		os.Exit(1)
	}

	msg, err := session.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		os.Exit(1)
	}

	if *background {
		msg, err = session.GetResponse(ctx, chat.WithWait(), chat.WithTimeout(2*time.Minute))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Polling failed: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println(msg.Text())
	if msg.Response != nil {
		logger.Info().
			Str("response_id", msg.Response.ID).
			Str("model", msg.Response.Model).
			Int64("total_tokens", msg.Response.TotalTokens).
			Msg("generation complete")
	}
}

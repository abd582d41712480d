package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipforge/acquisition"
	"clipforge/api"
	"clipforge/compose"
	"clipforge/config"
	"clipforge/kafka"
	"clipforge/publish"
	"clipforge/queue"
	"clipforge/storage"
	"clipforge/twitch"
	"clipforge/worker"
)

func main() {
	apiMode := flag.Bool("api", false, "Serve the HTTP submit/poll API")
	workerMode := flag.Bool("worker", false, "Process compilation jobs from the queue")
	kafkaMode := flag.Bool("kafka", false, "Consume compilation requests from Kafka")
	apiPort := flag.String("port", "", "API server port (overrides API_PORT)")
	flag.Parse()

	// Default: run the API and a worker in one process.
	if !*apiMode && !*workerMode && !*kafkaMode {
		*apiMode = true
		*workerMode = true
	}

	cfg := config.Load()
	if *apiPort != "" {
		cfg.APIPort = *apiPort
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer q.Close()
	if err := q.Ping(ctx); err != nil {
		log.Fatalf("redis unreachable at %s: %v", cfg.RedisAddr, err)
	}

	if *workerMode {
		startWorker(ctx, cfg, q)
	}

	if *kafkaMode {
		if len(cfg.KafkaBrokers) == 0 {
			log.Fatal("kafka mode requires KAFKA_BOOTSTRAP_SERVERS")
		}
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
			Queue:   q,
		})
		if err != nil {
			log.Fatalf("kafka consumer: %v", err)
		}
		if err := consumer.Start(ctx); err != nil {
			log.Fatalf("kafka consumer start: %v", err)
		}
		defer consumer.Close()
	}

	var server *http.Server
	if *apiMode {
		router := api.NewRouter(q)
		server = &http.Server{Addr: cfg.APIPort, Handler: router}
		go func() {
			log.Printf("API listening on %s", cfg.APIPort)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("server failed: %v", err)
			}
		}()
	}

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm
	log.Println("shutting down...")
	cancel()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}
	// Give in-flight job processing a moment to record its terminal state.
	time.Sleep(2 * time.Second)
}

// startWorker wires the acquisition chain, the composer and the optional
// exporters, then consumes jobs in the background.
func startWorker(ctx context.Context, cfg *config.Config, q *queue.Queue) {
	helix := twitch.NewClient(ctx, cfg.TwitchClientID, cfg.TwitchClientSecret)
	if !helix.Configured() {
		log.Println("twitch credentials not set; vendor metadata lookups disabled")
	}

	engine := acquisition.NewEngine(
		acquisition.DirectURLStrategy{},
		acquisition.GQLStrategy{Client: twitch.NewGQLClient()},
		acquisition.NewPageScrapeStrategy(),
		acquisition.NewYtDlpStrategy(cfg.YtDlpPath),
	)

	composer := compose.NewComposer(cfg.OutputDir(), cfg.OutroPath)

	artifacts, err := storage.New(ctx, storage.Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		Prefix:       cfg.S3Prefix,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		log.Printf("S3 disabled: %v", err)
	}

	publisher, err := publish.New(ctx, cfg.YouTubeServiceAccountFile)
	if err != nil {
		log.Printf("YouTube publishing disabled: %v", err)
	}

	w := &worker.Worker{
		Store:     q,
		Acquirer:  engine,
		Composer:  composer,
		Helix:     helix,
		TempDir:   cfg.TempDir(),
		Artifacts: artifacts,
		Publisher: publisher,
	}

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("worker stopped: %v", err)
		}
	}()
	log.Println("worker started")
}

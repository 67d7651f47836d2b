package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	brokers      string
	topic        string
	topicArn     string
	httpPort     string
	batchSize    int
	rate         int
	duration     time.Duration
	recordCount  int
	invalidRatio float64
)

func init() {
	// Try to load .env file (optional)
	godotenv.Load()

	flag.StringVar(&brokers, "brokers", getEnv("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&topic, "topic", getEnv("KAFKA_TOPIC", "sns-events"), "Kafka topic name")
	flag.StringVar(&topicArn, "topic-arn", "arn:aws:sns:us-east-1:123456789012:loadtest", "SNS topic ARN written into generated messages")
	flag.StringVar(&httpPort, "http", "", "HTTP server port (e.g., :8081). If set, starts HTTP producer mode")
	flag.IntVar(&batchSize, "batch", 0, "Number of envelopes to produce (0 = infinite)")
	flag.IntVar(&rate, "rate", 0, "Envelopes per second (0 = as fast as possible)")
	flag.DurationVar(&duration, "duration", 0, "Duration to run (e.g., 30s, 5m). If set, overrides batch")
	flag.IntVar(&recordCount, "records", 1, "Records per envelope")
	flag.Float64Var(&invalidRatio, "invalid", 0, "Fraction of envelopes (0..1) deliberately corrupted to exercise the DLQ")
	flag.Parse()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if recordCount < 1 {
		logger.Fatal("records must be at least 1", zap.Int("records", recordCount))
	}
	if invalidRatio < 0 || invalidRatio > 1 {
		logger.Fatal("invalid ratio must be within [0, 1]", zap.Float64("invalid", invalidRatio))
	}

	// Parse brokers
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	// Create Kafka writer
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	defer writer.Close()

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", brokerList),
		zap.String("topic", topic),
	)

	gen := newGenerator(topicArn)

	// HTTP mode
	if httpPort != "" {
		runHTTPProducer(writer, gen, logger)
		return
	}

	// CLI mode
	runCLIProducer(writer, gen, logger)
}

// runHTTPProducer publishes each POST body as the Message of a single-record envelope.
// With ?raw=true the body is forwarded unchanged.
func runHTTPProducer(writer *kafka.Writer, gen *generator, logger *zap.Logger) {
	logger.Info("Starting HTTP producer server",
		zap.String("port", httpPort),
		zap.String("topic", topic),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error("Failed to read request body", zap.Error(err))
			http.Error(w, "Failed to read body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if len(body) == 0 {
			http.Error(w, "Empty body", http.StatusBadRequest)
			return
		}

		value := body
		if r.URL.Query().Get("raw") != "true" {
			value, err = gen.Envelope(1, string(body), nil)
			if err != nil {
				logger.Error("Failed to build envelope", zap.Error(err))
				http.Error(w, "Failed to build envelope", http.StatusInternalServerError)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if err := writer.WriteMessages(ctx, kafka.Message{Value: value, Time: time.Now()}); err != nil {
			logger.Error("Failed to produce message", zap.Error(err))
			http.Error(w, "Failed to produce message", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:    httpPort,
		Handler: mux,
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down HTTP producer server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("HTTP server error", zap.Error(err))
	}
}

func runCLIProducer(writer *kafka.Writer, gen *generator, logger *zap.Logger) {
	logger.Info("Starting CLI producer",
		zap.Int("batch_size", batchSize),
		zap.Int("rate", rate),
		zap.Duration("duration", duration),
		zap.Int("records_per_envelope", recordCount),
		zap.Float64("invalid_ratio", invalidRatio),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	// Rate limiter
	var ticker *time.Ticker
	if rate > 0 {
		ticker = time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()
	}

	var (
		wg       sync.WaitGroup
		produced atomic.Int64
		invalid  atomic.Int64
		started  int
	)

	for ctx.Err() == nil {
		// Check batch limit
		if batchSize > 0 && started >= batchSize {
			logger.Info("Batch limit reached", zap.Int("started", started))
			break
		}

		// Rate limiting
		if ticker != nil {
			select {
			case <-ctx.Done():
				continue
			case <-ticker.C:
			}
		}

		corrupt := invalidRatio > 0 && rand.Float64() < invalidRatio
		value, err := gen.Envelope(recordCount, "load test message", nil)
		if err != nil {
			logger.Error("Failed to build envelope", zap.Error(err))
			continue
		}
		if corrupt {
			value = gen.Corrupt(value)
		}
		started++

		wg.Add(1)
		go func(value []byte, corrupt bool) {
			defer wg.Done()

			writeCtx, writeCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer writeCancel()

			if err := writer.WriteMessages(writeCtx, kafka.Message{Value: value, Time: time.Now()}); err != nil {
				logger.Error("Failed to produce message", zap.Error(err))
				return
			}
			if corrupt {
				invalid.Add(1)
			}
			if current := produced.Add(1); current%100 == 0 {
				logger.Info("Produced envelopes", zap.Int64("count", current))
			}
		}(value, corrupt)
	}

	wg.Wait()
	logger.Info("Producer stopped",
		zap.Int64("total_produced", produced.Load()),
		zap.Int64("invalid_produced", invalid.Load()),
	)
}

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"contact-waterfall/formatter"
	"contact-waterfall/metrics"
	"contact-waterfall/models"
	"contact-waterfall/parser"
	"contact-waterfall/store"
	"contact-waterfall/waterfall"
)

func main() {
	// Define flags
	queuesPath := flag.String("queues", "", "Queue extract CSV file (required)")
	rolesPath := flag.String("roles", "", "Role roster CSV file (required)")
	portfolioPath := flag.String("portfolio", "", "Initiative portfolio YAML file (required)")
	format := flag.String("format", "text", "Output format: text|json|csv")
	scenarios := flag.Bool("scenarios", false, "Compute conservative and aggressive scenarios")
	sensitivity := flag.Bool("sensitivity", false, "Compute ±20% single-variable sensitivity")
	dbPath := flag.String("db", "", "SQLite run-history database (optional)")
	metricsAddr := flag.String("metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	pushGateway := flag.String("push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	wait := flag.Bool("wait", false, "Keep process running after completion to allow for metric scraping")

	// Parse command-line flags
	flag.Parse()

	// Start metrics server if address provided
	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			fmt.Printf("Metrics server listening on %s/metrics\n", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				fmt.Printf("Metrics server error: %v\n", err)
			}
		}()
	}

	// Validate required input flags
	if *queuesPath == "" || *rolesPath == "" || *portfolioPath == "" {
		fmt.Println("Error: -queues, -roles and -portfolio flags are required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Validate format enum
	validFormats := map[string]bool{"text": true, "json": true, "csv": true}
	if !validFormats[*format] {
		fmt.Printf("Error: format must be one of: text, json, csv (got: %s)\n", *format)
		os.Exit(1)
	}

	queues := loadQueues(*queuesPath)
	roles := loadRoles(*rolesPath)
	portfolio := loadPortfolio(*portfolioPath)

	in := models.Inputs{
		Queues:      queues,
		Roles:       roles,
		Params:      portfolio.Params,
		Initiatives: portfolio.Initiatives,
		Tech:        portfolio.Tech,
	}

	metrics.ResetRunGauges()
	start := time.Now()
	result := waterfall.Analyze(in, waterfall.Options{
		Scenarios:   *scenarios,
		Sensitivity: *sensitivity,
	})
	metrics.RunDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.QueuesProcessed.Observe(float64(len(queues)))
	recordRunMetrics(result)

	// Output based on format
	switch *format {
	case "json":
		fmt.Print(formatter.FormatJSON(result))
	case "csv":
		fmt.Print(formatter.FormatCSV(result))
	default: // "text"
		fmt.Print(formatter.FormatText(result))
	}

	// Persist run history if requested
	if *dbPath != "" {
		db, err := store.InitDB(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening run database: %v\n", err)
		} else {
			defer db.Close()
			if err := store.SaveRun(db, result); err != nil {
				fmt.Fprintf(os.Stderr, "Error saving run: %v\n", err)
			}
		}
	}

	// Handle metrics pushing or waiting
	if *pushGateway != "" {
		jobName := "contact_waterfall"
		if err := push.New(*pushGateway, jobName).Gatherer(metrics.Registry).Push(); err != nil {
			fmt.Fprintf(os.Stderr, "Error pushing to Pushgateway: %v\n", err)
		} else {
			fmt.Println("\nMetrics successfully pushed to Pushgateway")
		}
	}

	if *wait && *metricsAddr != "" {
		fmt.Println("\nProcess kept alive for metric scraping. Press Ctrl+C to exit.")
		// Wait for interrupt signal
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		fmt.Println("\nExiting...")
	} else if *metricsAddr != "" && *pushGateway == "" {
		// Small delay to allow final scrape if not waiting explicitly
		// but typically batch jobs should use pushgateway or wait
		time.Sleep(100 * time.Millisecond)
	}
}

func loadQueues(path string) []models.Queue {
	file, err := os.Open(path)
	if err != nil {
		fmt.Printf("Error opening queues file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	queues, err := parser.ParseQueues(file)
	if err != nil {
		metrics.ParserErrorsTotal.WithLabelValues("queues").Inc()
		fmt.Printf("Error parsing queues file: %v\n", err)
		os.Exit(1)
	}
	metrics.ParserRecordsTotal.Add(float64(len(queues)))
	return queues
}

func loadRoles(path string) []models.Role {
	file, err := os.Open(path)
	if err != nil {
		fmt.Printf("Error opening roles file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	roles, err := parser.ParseRoles(file)
	if err != nil {
		metrics.ParserErrorsTotal.WithLabelValues("roles").Inc()
		fmt.Printf("Error parsing roles file: %v\n", err)
		os.Exit(1)
	}
	metrics.ParserRecordsTotal.Add(float64(len(roles)))
	return roles
}

func loadPortfolio(path string) *parser.Portfolio {
	file, err := os.Open(path)
	if err != nil {
		fmt.Printf("Error opening portfolio file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	portfolio, err := parser.ParsePortfolio(file)
	if err != nil {
		metrics.ParserErrorsTotal.WithLabelValues("portfolio").Inc()
		fmt.Printf("Error parsing portfolio file: %v\n", err)
		os.Exit(1)
	}
	return portfolio
}

func recordRunMetrics(res *models.RunResult) {
	for lever, u := range res.Utilization {
		metrics.PoolCeilingFTE.WithLabelValues(string(lever)).Set(u.CeilingFTE)
		metrics.PoolConsumedFTE.WithLabelValues(string(lever)).Set(u.ConsumedFTE)
	}
	metrics.TotalReductionFTE.Set(res.TotalReduction)
	metrics.TotalNPV.Set(res.TotalNPV)
	metrics.TotalInvestment.Set(res.TotalInvestment)
	for _, o := range res.Outcomes {
		if o.PoolCapped {
			metrics.InitiativesPoolCapped.Inc()
		}
		if o.SafetyCapped {
			metrics.InitiativesSafetyCapped.Inc()
		}
	}
	if len(res.Degraded) > 0 {
		metrics.DegradedRunsTotal.Inc()
	}
}

// Command train fits a model over the stored weekly series and writes the
// artifact. With -synthetic it trains on generated data instead, which is
// useful for smoke-testing a deployment before real surveillance data lands.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Edgar-Del/malaria-predict-mono/internal/config"
	"github.com/Edgar-Del/malaria-predict-mono/internal/db"
	"github.com/Edgar-Del/malaria-predict-mono/internal/logging"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/store"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
	"github.com/Edgar-Del/malaria-predict-mono/internal/synthetic"
)

func main() {
	syntheticOnly := flag.Bool("synthetic", false, "train on generated data instead of the database")
	modelPath := flag.String("model", "", "model artifact path (overrides MODEL_PATH)")
	flag.Parse()

	var (
		records []models.WeeklyRecord
		mlCfg   ml.Config
		logger  *logrus.Logger
		dbConn  *db.DB
		path    string
	)

	ctx := context.Background()

	if *syntheticOnly {
		// No database needed: default options, default config, console log.
		mlCfg = ml.DefaultConfig()
		logger = logrus.New()
		records = synthetic.Generate(synthetic.DefaultOptions())
		path = "models/malaria.model"
	} else {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		mlCfg = cfg.ML
		path = cfg.Model.Path

		logger, err = logging.New(cfg.Logging.Dir, cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			log.Fatalf("Failed to init logger: %v", err)
		}

		dbConn, err = db.New(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		defer dbConn.Close()

		records, err = dbConn.GetSeries(ctx, "", 0, 0)
		if err != nil {
			log.Fatalf("Failed to load weekly series: %v", err)
		}
	}
	if *modelPath != "" {
		path = *modelPath
	}

	trainer, err := ml.NewTrainer(mlCfg, store.NewFileStore(path), logger)
	if err != nil {
		log.Fatalf("Invalid training configuration: %v", err)
	}

	logger.Infof("Training on %d weekly records", len(records))
	model, err := trainer.Train(records)
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	if dbConn != nil {
		if err := dbConn.InsertMetrics(ctx, model.Metrics); err != nil {
			logger.Errorf("Failed to persist training metrics: %v", err)
		}
	}

	fmt.Fprintf(os.Stdout, "model %s saved to %s\n", model.Version, path)
	fmt.Fprintf(os.Stdout, "accuracy=%.3f macro_f1=%.3f train=%d test=%d\n",
		model.Metrics.Accuracy, model.Metrics.F1Macro,
		model.Metrics.TrainSamples, model.Metrics.TestSamples)
}

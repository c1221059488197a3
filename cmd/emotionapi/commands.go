package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"emotionapi/internal/logger"
	"emotionapi/internal/model"
	"emotionapi/internal/predict"
	"emotionapi/internal/server"
)

func loadConfig(cmd *cli.Command) (*server.Config, error) {
	if err := server.LoadEnvFile(cmd.String("env")); err != nil {
		return nil, err
	}
	cfg, err := server.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if p := cmd.String("vectorizer"); p != "" {
		cfg.VectorizerPath = p
	}
	if p := cmd.String("model"); p != "" {
		cfg.ModelPath = p
	}
	return cfg, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	artifacts, err := model.LoadArtifacts(cfg.VectorizerPath, cfg.ModelPath)
	if err != nil {
		log.Error("Failed to load artifacts", zap.Error(err))
		return fmt.Errorf("failed to load artifacts: %w", err)
	}
	log.Info("Artifacts loaded",
		zap.String("vectorizer", cfg.VectorizerPath),
		zap.String("model", cfg.ModelPath),
		zap.Int("features", artifacts.Vectorizer.Dimensions()),
		zap.Int("classes", len(artifacts.Classifier.Classes())),
	)

	var opts []predict.Option
	if cfg.Cache.Size > 0 {
		opts = append(opts, predict.WithCache(predict.NewResultCache(cfg.Cache.Size, cfg.Cache.TTL)))
		log.Info("Prediction cache enabled", zap.Int("size", cfg.Cache.Size), zap.Duration("ttl", cfg.Cache.TTL))
	}
	svc := predict.New(artifacts.Vectorizer, artifacts.Classifier, opts...)

	if err := server.New(svc, cfg, log).Run(ctx); err != nil {
		return err
	}
	log.Info("Server exited")
	return nil
}

// predictAction prints one JSON line per text. texts holds the arguments given
// after "--"; when it is nil, stdin is read line by line instead.
func predictAction(texts []string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() > 0 {
			return fmt.Errorf("texts go after --, as in: predict -- %q", cmd.Args().First())
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		artifacts, err := model.LoadArtifacts(cfg.VectorizerPath, cfg.ModelPath)
		if err != nil {
			return fmt.Errorf("failed to load artifacts: %w", err)
		}
		svc := predict.New(artifacts.Vectorizer, artifacts.Classifier)

		enc := json.NewEncoder(writer(cmd))
		enc.SetEscapeHTML(false)
		emit := func(text string) error {
			res, err := svc.Predict(ctx, text)
			if err != nil {
				return err
			}
			return enc.Encode(res)
		}

		if texts != nil {
			for _, text := range texts {
				if err := emit(text); err != nil {
					return err
				}
			}
			return nil
		}

		scanner := bufio.NewScanner(reader(cmd))
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			if err := emit(scanner.Text()); err != nil {
				return err
			}
		}
		return scanner.Err()
	}
}

// artifactSummary is what inspect prints.
type artifactSummary struct {
	Vectorizer struct {
		Path       string `yaml:"path"`
		Kind       string `yaml:"kind"`
		Vocabulary int    `yaml:"vocabulary"`
	} `yaml:"vectorizer"`
	Classifier struct {
		Path     string   `yaml:"path"`
		Kind     string   `yaml:"kind"`
		Features int      `yaml:"features"`
		Classes  []string `yaml:"classes"`
	} `yaml:"classifier"`
	Compatible bool `yaml:"compatible"`
}

func inspectAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	artifacts, err := model.LoadArtifacts(cfg.VectorizerPath, cfg.ModelPath)
	if err != nil {
		return err
	}

	var s artifactSummary
	s.Vectorizer.Path = cfg.VectorizerPath
	s.Vectorizer.Kind = artifacts.Vectorizer.Kind()
	s.Vectorizer.Vocabulary = artifacts.Vectorizer.VocabularySize()
	s.Classifier.Path = cfg.ModelPath
	s.Classifier.Kind = artifacts.Classifier.Kind()
	s.Classifier.Features = artifacts.Classifier.NumFeatures()
	for _, c := range artifacts.Classifier.Classes() {
		s.Classifier.Classes = append(s.Classifier.Classes, string(c))
	}
	s.Compatible = true

	out, err := yaml.Marshal(&s)
	if err != nil {
		return err
	}
	_, err = writer(cmd).Write(out)
	return err
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func reader(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

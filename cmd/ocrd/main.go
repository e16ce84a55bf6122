// Command ocrd runs the OCR processing server: a fixed pool of workers behind
// an HTTP boundary, normalizing images and extracting text with Tesseract.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wudi/ocrkit/extract"
	"github.com/wudi/ocrkit/ocr/tesseract"
	"github.com/wudi/ocrkit/pipeline"
	"github.com/wudi/ocrkit/pool"
	"github.com/wudi/ocrkit/scripting"
	"github.com/wudi/ocrkit/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ocrd: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "ocrd",
		Short: "OCR processing server",
		Long: "ocrd accepts images over HTTP, normalizes them through a fixed\n" +
			"enhancement pipeline, and returns Tesseract-extracted text plus the\n" +
			"normalized image. Requests are processed by a fixed-size worker pool.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.Int("workers", pool.DefaultWorkers, "number of concurrent workers")
	flags.Int("max-conns", 0, "max concurrent connections (0 = unlimited)")
	flags.StringSlice("languages", []string{"eng"}, "tesseract language codes")
	flags.String("tessdata", "", "tesseract trained-data directory")
	flags.String("script", "", "path to a JavaScript post-processing script")
	flags.Bool("debug", false, "enable debug logging")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("OCRD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func run(v *viper.Viper) error {
	logger, err := newLogger(v.GetBool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine := tesseract.New(tesseract.Config{
		Languages:   v.GetStringSlice("languages"),
		TessdataDir: v.GetString("tessdata"),
	})

	policyOpts := []extract.Option{extract.WithLogger(logger.Named("extract"))}
	if path := v.GetString("script"); path != "" {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		hook, err := scripting.Compile(path, string(src))
		if err != nil {
			return err
		}
		policyOpts = append(policyOpts, extract.WithPostProcess(hook.Run))
		logger.Info("post-processing script loaded", zap.String("path", path))
	}

	proc := pool.NewOCRProcessor(
		pipeline.New(pipeline.Config{Logger: logger.Named("pipeline")}),
		extract.NewPolicy(engine, policyOpts...),
		logger.Named("process"),
	)
	p := pool.New(proc, pool.Config{
		Workers: v.GetInt("workers"),
		Logger:  logger.Named("pool"),
	})
	srv := server.New(p, server.Config{
		Addr:     v.GetString("addr"),
		MaxConns: v.GetInt("max-conns"),
		Logger:   logger.Named("server"),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if err := p.Shutdown(ctx); err != nil {
		logger.Warn("pool shutdown", zap.Error(err))
	}
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

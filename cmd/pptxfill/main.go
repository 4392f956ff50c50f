// Command pptxfill заполняет шаблон .pptx кодами без запуска сервера.
//
//	pptxfill --template in.pptx --codes codes.txt [--placeholder T] [--per-slide N] [--out path]
//
// --codes - читает коды из стандартного ввода.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/model"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/service"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/storage"
)

type options struct {
	template    string
	codes       string
	placeholder string
	perSlide    int
	out         string
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Fatal("pptxfill failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "pptxfill",
		Short:        "Fill a PPTX template with running numbers",
		Long:         "Duplicates the first slide of the template once per group of codes and replaces the placeholder with the codes.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fill(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.template, "template", "t", "", "path to the .pptx template")
	flags.StringVarP(&opts.codes, "codes", "c", "", "file with one code per line, - for stdin")
	flags.StringVarP(&opts.placeholder, "placeholder", "p", service.DefaultPlaceholder, "placeholder text in the template")
	flags.IntVarP(&opts.perSlide, "per-slide", "n", 1, "codes per slide")
	flags.StringVarP(&opts.out, "out", "o", "", "output path (default Filled_<template> next to the template)")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("codes")

	return cmd
}

func fill(ctx context.Context, stdin io.Reader, stdout io.Writer, opts options, logger *zap.Logger) error {
	if opts.perSlide < 1 {
		return fmt.Errorf("%w: %d", service.ErrInvalidItemsPerSlide, opts.perSlide)
	}

	template, err := os.ReadFile(opts.template)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	codes, err := readCodes(opts.codes, stdin)
	if err != nil {
		return err
	}

	svc := service.NewGeneratorService(storage.NewMemoryStore(), nil, logger, opts.placeholder, opts.perSlide)
	result, err := svc.Generate(ctx, "", model.GenerateRequest{
		Filename:       filepath.Base(opts.template),
		RunningNumbers: codes,
		Placeholder:    opts.placeholder,
		Template:       template,
		ItemsPerSlide:  opts.perSlide,
	})
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = filepath.Join(filepath.Dir(opts.template), result.Filename)
	}
	if err := os.WriteFile(out, result.Document, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	_, err = fmt.Fprintf(stdout, "%s: %d codes on %d slides\n", out, result.Codes, result.Slides)
	return err
}

func readCodes(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read codes: %w", err)
	}
	return string(data), nil
}

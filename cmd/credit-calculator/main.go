package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/credit-calculator/internal/config"
	"github.com/iwvelando/credit-calculator/internal/logging"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/format"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/iwvelando/credit-calculator/pkg/output"
	"github.com/iwvelando/credit-calculator/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": %q}\n", err.Error())
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("credit-calculator", flag.ContinueOnError)
	configLocation := flags.String("config", constants.DefaultConfigFile, "path to configuration file")
	principal := flags.Float64("principal", 0, "loan amount")
	rate := flags.Float64("rate", 0, "annual flat interest rate in percent (0-100)")
	term := flags.Int("term", 0, "loan term in months (1-600)")
	outputFormatFlag := flags.String("output-format", "", "type of output override: pretty, csv, json, yaml")
	logLevel := flags.String("log-level", "", "log level override (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// Load the config file to get logging and output configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", *configLocation, err)
	}

	logger, err := logging.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	formatter, err := format.NewFormatter(conf.Output.Locale, conf.Output.CurrencySymbol)
	if err != nil {
		return err
	}

	request := loans.Request{Principal: *principal, AnnualRatePercent: *rate, TermMonths: *term}
	result, err := loans.NewCalculator(logger).Calculate(request)
	if err != nil {
		logger.Error("failed to compute calculation",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return err
	}

	return output.Write(stdout, outputFormat, result, formatter)
}

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"finance-dashboard/internal/dto"
	"finance-dashboard/pkg/render"

	"github.com/spf13/cobra"
)

var reportOpts struct {
	userID    uint
	portfolio string
	withAI    bool
	format    string
	style     string
	output    string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the investment report of a portfolio",
	Run:   runReport,
}

func init() {
	reportCmd.Flags().UintVarP(&reportOpts.userID, "user", "u", 0, "owner user id")
	reportCmd.Flags().StringVarP(&reportOpts.portfolio, "portfolio", "p", "", "portfolio name")
	reportCmd.Flags().BoolVar(&reportOpts.withAI, "ai", false, "include AI recommendations")
	reportCmd.Flags().StringVarP(&reportOpts.format, "format", "f", "terminal", "output format: terminal, md or html")
	reportCmd.Flags().StringVar(&reportOpts.style, "style", "dark", "glamour style for terminal output")
	reportCmd.Flags().StringVarP(&reportOpts.output, "output", "o", "", "write to file instead of stdout")
	_ = reportCmd.MarkFlagRequired("user")
	_ = reportCmd.MarkFlagRequired("portfolio")
}

func runReport(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	services, err := newServices(appDep)
	if err != nil {
		log.Fatalf("Failed to create services: %v", err)
	}

	report, err := services.ReportService.Generate(ctx, reportOpts.userID, reportOpts.portfolio, reportOpts.withAI)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	out, err := formatReport(services.ReportService.RenderHTML, report, reportOpts.format, reportOpts.style)
	if err != nil {
		log.Fatalf("Failed to format report: %v", err)
	}

	if reportOpts.output == "" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(reportOpts.output, []byte(out), 0o644); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	fmt.Printf("Report written to %s\n", reportOpts.output)
}

func formatReport(toHTML func(*dto.Report) (*dto.Report, error), report *dto.Report, format, style string) (string, error) {
	switch format {
	case dto.ReportFormatMarkdown, "markdown":
		return report.Content, nil
	case dto.ReportFormatHTML:
		rendered, err := toHTML(report)
		if err != nil {
			return "", err
		}
		return rendered.Content, nil
	case "terminal":
		return render.Terminal(report.Content, style)
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

package cmd

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/service"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/render"

	"github.com/spf13/cobra"
)

var riskAnswers string

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Show the risk questionnaire or score a set of answers",
	Example: `  finance-dashboard risk
  finance-dashboard risk --answers 3,4,2,5,1
  finance-dashboard risk --answers 1=4,2=3,3=3,4=2,5=4`,
	Run: runRisk,
}

func init() {
	riskCmd.Flags().StringVarP(&riskAnswers, "answers", "a", "", "comma separated scores, positional or as question=score pairs")
}

func runRisk(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	riskService, err := service.NewRiskService(cfg, logger.NewNop(), nil)
	if err != nil {
		log.Fatalf("Failed to create risk service: %v", err)
	}

	var markdown string
	if riskAnswers == "" {
		markdown = questionnaireMarkdown(riskService.Questions())
	} else {
		answers, err := parseRiskAnswers(riskAnswers)
		if err != nil {
			log.Fatalf("Invalid answers: %v", err)
		}
		profile, err := riskService.CalculateProfile(answers)
		if err != nil {
			log.Fatalf("Failed to calculate profile: %v", err)
		}
		markdown = profileMarkdown(profile, riskService.ProfileSummary(profile))
	}

	out, err := render.Terminal(markdown, "")
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	fmt.Print(out)
}

// parseRiskAnswers reads either "1=4,2=3" or positional scores "4,3" into question id to score.
func parseRiskAnswers(raw string) (map[int]int, error) {
	answers := make(map[int]int)
	for i, pair := range strings.Split(raw, ",") {
		id, score, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			id, score = strconv.Itoa(i+1), id
		}
		q, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", id, err)
		}
		s, err := strconv.Atoi(strings.TrimSpace(score))
		if err != nil {
			return nil, fmt.Errorf("score %q: %w", score, err)
		}
		answers[q] = s
	}
	return answers, nil
}

func questionnaireMarkdown(questions []dto.RiskQuestion) string {
	var sb strings.Builder
	sb.WriteString("# Descubre tu Perfil de Inversión\n\n")
	for _, q := range questions {
		sb.WriteString(fmt.Sprintf("## Pregunta %d\n\n%s\n\n", q.ID, q.Text))
		for _, o := range q.Options {
			sb.WriteString(fmt.Sprintf("- **%d**: %s\n", o.Score, o.Text))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func profileMarkdown(profile dto.RiskProfile, summary dto.RiskProfileSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Tu perfil es: %s\n\n%s\n\n", profile.Profile, profile.Description))
	sb.WriteString(fmt.Sprintf("- **Puntuación:** %d\n", summary.Score))
	sb.WriteString(fmt.Sprintf("- **Horizonte Temporal:** %s\n", summary.Horizon))
	sb.WriteString(fmt.Sprintf("- **Riesgo Aceptado:** %s\n", summary.RiskTaken))
	sb.WriteString(fmt.Sprintf("- **Objetivo Principal:** %s\n", summary.Objective))

	sb.WriteString("\n## Activos Recomendados\n\n")
	for _, asset := range profile.RecommendedAssets {
		sb.WriteString(fmt.Sprintf("- %s\n", asset))
	}
	sb.WriteString("\n## Asignación Sugerida\n\n")
	for _, a := range profile.Allocation {
		sb.WriteString(fmt.Sprintf("- **%s:** %s\n", a.Asset, a.Range))
	}
	return sb.String()
}
